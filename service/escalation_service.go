package service

import (
	"civicpulse/models"
	"civicpulse/repository"
	"errors"
	"fmt"
	"log"
	"time"
)

// Clock supplies the current time. Injectable so deadline logic is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock (UTC, matching stored timestamps).
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ComplaintStore is the persistence collaborator of the escalation
// pipeline. ApplyTransition and CloseEscalated must be atomic against
// concurrent readers of the same record and must report
// repository.ErrStaleWrite when the expected level/window no longer
// matches; that check is what serializes concurrent evaluations of the
// same complaint.
type ComplaintStore interface {
	GetEscalationState(complaintID int64) (models.EscalationState, error)
	ListOpenStates() ([]models.EscalationState, error)
	ApplyTransition(expected models.EscalationState, newLevel int, newStartedAt time.Time, event *models.EscalationEvent) error
	CloseEscalated(expected models.EscalationState, closedAt time.Time, event *models.EscalationEvent) error
}

// NotificationSink receives escalation notices for delivery. Emit is
// fire-and-forget from the engine's point of view: a delivery error is
// logged and never fails the transition that produced it.
type NotificationSink interface {
	Emit(notice models.EscalationNotice) error
}

// EscalationOutcome reports what one evaluation did to a complaint.
type EscalationOutcome struct {
	ComplaintID int64     `json:"complaint_id"`
	Escalated   bool      `json:"escalated"`
	Transitions int       `json:"transitions"`
	FinalLevel  int       `json:"final_level"`
	Closed      bool      `json:"closed"`
	Reason      string    `json:"reason"`
	ProcessedAt time.Time `json:"processed_at"`
}

// EscalationStatus is the presentation view of a complaint's timer,
// consumed by display surfaces. Pure read, no side effects.
type EscalationStatus struct {
	ComplaintID int64            `json:"complaint_id"`
	Level       int              `json:"level"`
	LevelInfo   models.LevelInfo `json:"level_info"`
	Timer       models.TimerInfo `json:"timer"`
	Progress    float64          `json:"progress_percent"`
	Hours       int              `json:"remaining_hours"`
	Minutes     int              `json:"remaining_minutes"`
}

// EscalationService drives the engine over the store: it scans open
// complaints, applies due transitions, retries stale writes against
// fresh state, and emits notices to the sink.
type EscalationService struct {
	engine *EscalationEngine
	store  ComplaintStore
	sink   NotificationSink
	clock  Clock
}

// maxStaleRetries bounds re-evaluation after write conflicts within a
// single pass; the next worker tick picks up whatever remains.
const maxStaleRetries = 3

// NewEscalationService creates the escalation driver.
func NewEscalationService(
	engine *EscalationEngine,
	store ComplaintStore,
	sink NotificationSink,
	clock Clock,
) *EscalationService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &EscalationService{
		engine: engine,
		store:  store,
		sink:   sink,
		clock:  clock,
	}
}

// Engine exposes the pure computation primitives.
func (s *EscalationService) Engine() *EscalationEngine { return s.engine }

// ProcessEscalations evaluates every open complaint once. This is the
// main entry point for the escalation worker and is safe to call
// repeatedly: complaints that are not due report a no-op outcome.
func (s *EscalationService) ProcessEscalations() ([]EscalationOutcome, error) {
	states, err := s.store.ListOpenStates()
	if err != nil {
		return nil, fmt.Errorf("failed to list open complaints: %w", err)
	}
	log.Printf("[ESCALATION] Evaluating %d open complaints", len(states))

	var outcomes []EscalationOutcome
	for _, state := range states {
		outcome, err := s.evaluate(state)
		if err != nil {
			log.Printf("[ESCALATION] Skipping complaint %d: %v", state.ComplaintID, err)
			continue
		}
		if outcome.Escalated || outcome.Closed {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes, nil
}

// EvaluateComplaint runs one evaluation for a single complaint (used by
// the manual trigger endpoint and the verification tool).
func (s *EscalationService) EvaluateComplaint(complaintID int64) (EscalationOutcome, error) {
	state, err := s.store.GetEscalationState(complaintID)
	if err != nil {
		return EscalationOutcome{}, fmt.Errorf("failed to read complaint %d: %w", complaintID, err)
	}
	return s.evaluate(state)
}

// evaluate applies due transitions to one complaint. Each transition
// restarts the level window, so a complaint that missed several windows
// catches up over successive passes, one persisted and notified step at
// a time. A stale write means another writer got there first; re-read
// and re-evaluate.
func (s *EscalationService) evaluate(state models.EscalationState) (EscalationOutcome, error) {
	now := s.clock.Now()
	outcome := EscalationOutcome{
		ComplaintID: state.ComplaintID,
		FinalLevel:  state.Level,
		ProcessedAt: now,
	}

	staleRetries := 0
	for {
		expected := state
		result := s.engine.TryEscalate(&state, now)
		if !result.Transitioned {
			if !outcome.Escalated {
				outcome.Reason = result.Reason
			}
			outcome.FinalLevel = state.Level
			return outcome, nil
		}

		if result.TerminalReached {
			err := s.store.CloseEscalated(expected, now, result.Event)
			if errors.Is(err, repository.ErrStaleWrite) {
				state, err = s.reload(expected.ComplaintID, &staleRetries)
				if err != nil {
					return outcome, err
				}
				continue
			}
			if err != nil {
				return outcome, fmt.Errorf("failed to close complaint %d: %w", expected.ComplaintID, err)
			}
			log.Printf("[ESCALATION] Complaint %d exhausted its chain at level %d, closed", expected.ComplaintID, expected.Level)
			s.emit(expected, result)
			outcome.Escalated = true
			outcome.Transitions++
			outcome.Closed = true
			outcome.Reason = result.Reason
			outcome.FinalLevel = expected.Level
			return outcome, nil
		}

		err := s.store.ApplyTransition(expected, state.Level, state.CurrentLevelStartedAt, result.Event)
		if errors.Is(err, repository.ErrStaleWrite) {
			state, err = s.reload(expected.ComplaintID, &staleRetries)
			if err != nil {
				return outcome, err
			}
			continue
		}
		if err != nil {
			return outcome, fmt.Errorf("failed to apply transition for complaint %d: %w", expected.ComplaintID, err)
		}
		log.Printf("[ESCALATION] ESCALATION FIRED complaint_id=%d level %d -> %d", expected.ComplaintID, expected.Level, state.Level)
		s.emit(expected, result)
		outcome.Escalated = true
		outcome.Transitions++
		outcome.Reason = result.Reason
		outcome.FinalLevel = state.Level
	}
}

// reload fetches fresh state after a write conflict.
func (s *EscalationService) reload(complaintID int64, retries *int) (models.EscalationState, error) {
	*retries++
	if *retries > maxStaleRetries {
		return models.EscalationState{}, fmt.Errorf("complaint %d: gave up after %d stale writes", complaintID, maxStaleRetries)
	}
	log.Printf("[ESCALATION] Stale write on complaint %d, re-reading (attempt %d)", complaintID, *retries)
	state, err := s.store.GetEscalationState(complaintID)
	if err != nil {
		return models.EscalationState{}, fmt.Errorf("failed to re-read complaint %d: %w", complaintID, err)
	}
	return state, nil
}

// emit hands the notice to the sink. The transition is already
// committed; delivery problems are the sink's to log and retry.
func (s *EscalationService) emit(from models.EscalationState, result models.TransitionResult) {
	if s.sink == nil || result.Event == nil {
		return
	}
	notice := models.EscalationNotice{
		ComplaintID:     from.ComplaintID,
		FromLevel:       result.Event.FromLevel,
		ToLevel:         result.Event.ToLevel,
		Reason:          result.Event.Reason,
		RecipientUserID: from.AssignedOfficerID,
		OccurredAt:      result.Event.EscalatedAt,
	}
	if err := s.sink.Emit(notice); err != nil {
		log.Printf("[ESCALATION] Warning: notification emit failed for complaint %d: %v", from.ComplaintID, err)
	}
}

// GetEscalationStatus computes the display view of a complaint's timer.
// Errors propagate so callers can render "unknown" instead of a
// fabricated countdown.
func (s *EscalationService) GetEscalationStatus(complaintID int64) (EscalationStatus, error) {
	state, err := s.store.GetEscalationState(complaintID)
	if err != nil {
		return EscalationStatus{}, fmt.Errorf("failed to read complaint %d: %w", complaintID, err)
	}
	now := s.clock.Now()
	timer := s.engine.TimeUntilEscalation(state, now)
	hours, minutes := timer.RemainingHours()
	return EscalationStatus{
		ComplaintID: state.ComplaintID,
		Level:       state.Level,
		LevelInfo:   models.EscalationLevelInfo(state.Level),
		Timer:       timer,
		Progress:    s.engine.Progress(state, now),
		Hours:       hours,
		Minutes:     minutes,
	}, nil
}
