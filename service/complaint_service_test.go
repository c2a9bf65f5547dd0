package service

import (
	"civicpulse/models"
	"errors"
	"testing"
)

// Validation runs before any repository call, so a service with nil
// repositories is enough to exercise the rejection paths.
func TestCreateComplaint_RejectsInvalidInput(t *testing.T) {
	svc := NewComplaintService(nil, nil)

	if _, err := svc.CreateComplaint(1, "", "pothole on main street", models.CategoryRoad, models.SeverityLow); err == nil {
		t.Error("expected an error for an empty title")
	}
	if _, err := svc.CreateComplaint(1, "Pothole", "", models.CategoryRoad, models.SeverityLow); err == nil {
		t.Error("expected an error for an empty description")
	}
	_, err := svc.CreateComplaint(1, "Pothole", "pothole on main street", models.Category("astrology"), models.SeverityLow)
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range []models.Category{
		models.CategoryRail, models.CategoryRoad, models.CategoryFire,
		models.CategoryCyber, models.CategoryPolice, models.CategoryCourt,
	} {
		if !models.ValidCategory(c) {
			t.Errorf("category %s should be valid", c)
		}
	}
	if models.ValidCategory(models.Category("astrology")) {
		t.Error("unknown category should be invalid")
	}
	if models.ValidCategory(models.Category("")) {
		t.Error("empty category should be invalid")
	}
}
