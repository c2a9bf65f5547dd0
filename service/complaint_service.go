package service

import (
	"civicpulse/models"
	"civicpulse/repository"
	"errors"
	"fmt"
	"log"
)

// ErrInvalidCategory is returned when a complaint names an unknown
// incident category.
var ErrInvalidCategory = errors.New("invalid complaint category")

// ComplaintService handles the complaint lifecycle around the
// escalation engine: filing, lookup, resolution and officer actions.
type ComplaintService struct {
	complaintRepo  *repository.ComplaintRepository
	escalationRepo *repository.EscalationRepository
}

// NewComplaintService creates a new complaint service
func NewComplaintService(
	complaintRepo *repository.ComplaintRepository,
	escalationRepo *repository.EscalationRepository,
) *ComplaintService {
	return &ComplaintService{
		complaintRepo:  complaintRepo,
		escalationRepo: escalationRepo,
	}
}

// CreateComplaint files a new complaint. The escalation track starts at
// level 1 with the window opening now; an unknown severity is accepted
// and handled by the engine's documented medium fallback.
func (s *ComplaintService) CreateComplaint(
	citizenID int64,
	title, description string,
	category models.Category,
	severity models.Severity,
) (*models.Complaint, error) {
	if title == "" || description == "" {
		return nil, errors.New("title and description are required")
	}
	if !models.ValidCategory(category) {
		return nil, ErrInvalidCategory
	}
	if normalized, fellBack := severity.Normalize(); fellBack {
		log.Printf("[COMPLAINT] Warning: complaint filed with unknown severity %q, storing %s", severity, normalized)
		severity = normalized
	}

	complaint := &models.Complaint{
		CitizenID:   citizenID,
		Title:       title,
		Description: description,
		Category:    category,
		Severity:    severity,
	}
	if err := s.complaintRepo.CreateComplaint(complaint); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	log.Printf("[COMPLAINT] Created complaint %s (id=%d severity=%s category=%s)",
		complaint.ComplaintNumber, complaint.ComplaintID, complaint.Severity, complaint.Category)
	return complaint, nil
}

// GetComplaint retrieves a complaint by ID
func (s *ComplaintService) GetComplaint(complaintID int64) (*models.Complaint, error) {
	return s.complaintRepo.GetComplaintByID(complaintID)
}

// GetComplaintsByCitizen lists a citizen's complaints
func (s *ComplaintService) GetComplaintsByCitizen(citizenID int64) ([]models.Complaint, error) {
	return s.complaintRepo.GetComplaintsByCitizenID(citizenID)
}

// GetTimeline returns the complaint's escalation history in insertion order.
func (s *ComplaintService) GetTimeline(complaintID int64) ([]models.EscalationEvent, error) {
	if _, err := s.complaintRepo.GetComplaintByID(complaintID); err != nil {
		return nil, err
	}
	return s.escalationRepo.GetEventsByComplaintID(complaintID)
}

// ResolveComplaint marks a complaint resolved. Escalation for it is
// frozen from here on: the engine's status guard rejects any in-flight
// transition.
func (s *ComplaintService) ResolveComplaint(complaintID int64) error {
	if err := s.complaintRepo.SetStatus(complaintID, models.StatusResolved); err != nil {
		return err
	}
	log.Printf("[COMPLAINT] Complaint %d resolved", complaintID)
	return nil
}

// RejectComplaint marks a complaint rejected, freezing escalation.
func (s *ComplaintService) RejectComplaint(complaintID int64) error {
	if err := s.complaintRepo.SetStatus(complaintID, models.StatusRejected); err != nil {
		return err
	}
	log.Printf("[COMPLAINT] Complaint %d rejected", complaintID)
	return nil
}

// AcceptComplaint assigns the officer to the complaint. Acceptance does
// not alter the escalation level or restart its window.
func (s *ComplaintService) AcceptComplaint(complaintID, officerID int64) error {
	if err := s.complaintRepo.AssignOfficer(complaintID, officerID); err != nil {
		return err
	}
	log.Printf("[COMPLAINT] Officer %d accepted complaint %d", officerID, complaintID)
	return nil
}

// IgnoreComplaint hides a complaint from one officer's queue. This is
// list filtering only; the complaint keeps escalating on its timer.
func (s *ComplaintService) IgnoreComplaint(complaintID, officerID int64) error {
	if _, err := s.complaintRepo.GetComplaintByID(complaintID); err != nil {
		return err
	}
	return s.complaintRepo.IgnoreComplaint(officerID, complaintID)
}

// GetOfficerQueue lists open complaints for an officer, excluding ones
// they ignored, most escalated first.
func (s *ComplaintService) GetOfficerQueue(officerID int64) ([]models.Complaint, error) {
	return s.complaintRepo.GetOpenComplaintsForOfficer(officerID)
}
