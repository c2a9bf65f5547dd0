package service

import (
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/utils"
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned for a failed officer login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// OfficerService handles officer accounts and authentication
type OfficerService struct {
	officerRepo *repository.OfficerRepository
	jwtSecret   []byte
}

// NewOfficerService creates a new officer service
func NewOfficerService(officerRepo *repository.OfficerRepository, jwtSecret string) *OfficerService {
	return &OfficerService{
		officerRepo: officerRepo,
		jwtSecret:   []byte(jwtSecret),
	}
}

// Login validates officer credentials and returns a signed token.
func (s *OfficerService) Login(email, password string) (string, *models.Officer, error) {
	officer, err := s.officerRepo.GetOfficerByEmail(email)
	if errors.Is(err, repository.ErrOfficerNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up officer: %w", err)
	}
	if !utils.CheckPassword(password, officer.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateOfficerJWT(officer.OfficerID, s.jwtSecret, 24)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, officer, nil
}

// RegisterOfficer creates an officer account with a hashed password.
func (s *OfficerService) RegisterOfficer(fullName, email, password, designation string) (*models.Officer, error) {
	if fullName == "" || email == "" || password == "" {
		return nil, errors.New("full_name, email, and password are required")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	officer := &models.Officer{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if designation != "" {
		officer.Designation.String = designation
		officer.Designation.Valid = true
	}
	if err := s.officerRepo.CreateOfficer(officer); err != nil {
		return nil, err
	}
	return officer, nil
}

// GetOfficer retrieves an officer by ID
func (s *OfficerService) GetOfficer(officerID int64) (*models.Officer, error) {
	return s.officerRepo.GetOfficerByID(officerID)
}
