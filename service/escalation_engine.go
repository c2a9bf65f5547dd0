package service

import (
	"civicpulse/models"
	"log"
	"time"
)

// EscalationEngine owns the escalation rule table and implements the
// per-complaint evaluation primitives: deadline/progress computation
// (pure, safe for concurrent readers) and the level transition.
//
// TryEscalate mutates the snapshot it is given; persisting the result
// and serializing concurrent evaluations of the same complaint is the
// caller's job (see EscalationService and ComplaintStore).
type EscalationEngine struct {
	rules *models.RuleTable
}

// NewEscalationEngine creates an engine over a validated rule table.
func NewEscalationEngine(rules *models.RuleTable) *EscalationEngine {
	return &EscalationEngine{rules: rules}
}

// Rules exposes the table for display surfaces (read-only).
func (e *EscalationEngine) Rules() *models.RuleTable {
	return e.rules
}

// ruleFor resolves the rule for a snapshot, applying the documented
// fallbacks (unknown severity -> medium, level < 1 -> 1). The fallback
// is logged because it usually means bad data upstream.
func (e *EscalationEngine) ruleFor(state models.EscalationState) (models.EscalationRule, bool) {
	if _, fellBack := state.Severity.Normalize(); fellBack {
		log.Printf("[ESCALATION] Warning: complaint %d has unknown severity %q, treating as %s",
			state.ComplaintID, state.Severity, models.FallbackSeverity)
	}
	return e.rules.Rule(state.Severity, state.Level)
}

// TimeUntilEscalation computes the deadline status of a complaint at
// the supplied instant. Inactive when the complaint is no longer open
// or its chain is exhausted. Pure: no state is mutated.
func (e *EscalationEngine) TimeUntilEscalation(state models.EscalationState, now time.Time) models.TimerInfo {
	if !state.Status.IsOpen() {
		return models.TimerInfo{}
	}
	rule, ok := e.ruleFor(state)
	if !ok {
		return models.TimerInfo{}
	}

	elapsed := now.Sub(state.CurrentLevelStartedAt)
	if elapsed >= rule.Delay {
		return models.TimerInfo{Active: true, Overdue: true, NextLevel: rule.Next}
	}
	return models.TimerInfo{
		Active:    true,
		Overdue:   false,
		Remaining: rule.Delay - elapsed,
		NextLevel: rule.Next,
	}
}

// Progress returns the fraction of the current window that has elapsed,
// as a percentage clamped to [0,100]. Returns 0 when the complaint is
// not open or the chain is exhausted. Monotone non-decreasing in now
// for a fixed snapshot.
func (e *EscalationEngine) Progress(state models.EscalationState, now time.Time) float64 {
	if !state.Status.IsOpen() {
		return 0
	}
	rule, ok := e.ruleFor(state)
	if !ok {
		return 0
	}

	elapsed := now.Sub(state.CurrentLevelStartedAt).Milliseconds()
	if elapsed <= 0 {
		return 0
	}
	delay := rule.Delay.Milliseconds()
	if elapsed >= delay {
		return 100
	}
	return 100 * float64(elapsed) / float64(delay)
}

// TryEscalate evaluates one transition for the snapshot at the supplied
// instant and applies it in place when due.
//
// Outcomes:
//   - status not open: no-op, reason "inactive"
//   - level beyond the chain: no-op, reason "terminal"
//   - deadline not reached: no-op, reason "not-due"
//   - due, numeric next level: level and currentLevelStartedAt are
//     updated and the transition event is returned
//   - due, close rule: TerminalReached is set and a close event is
//     returned; the level field is left untouched and complaint closure
//     stays with the caller
//
// Calling again with the same now after a successful transition
// evaluates against the new window, so a second call is a no-op unless
// the complaint has also missed that window (cascading escalation is
// driven by looping this call).
func (e *EscalationEngine) TryEscalate(state *models.EscalationState, now time.Time) models.TransitionResult {
	if !state.Status.IsOpen() {
		return models.TransitionResult{Reason: models.TransitionReasonInactive}
	}
	rule, ok := e.ruleFor(*state)
	if !ok {
		return models.TransitionResult{Reason: models.TransitionReasonTerminal}
	}
	if now.Sub(state.CurrentLevelStartedAt) < rule.Delay {
		return models.TransitionResult{Reason: models.TransitionReasonNotDue}
	}

	event := &models.EscalationEvent{
		ComplaintID: state.ComplaintID,
		FromLevel:   rule.Level,
		ToLevel:     rule.Next,
		EscalatedAt: now,
		Reason:      models.AutoEscalationReason,
	}

	if rule.Next.IsClose() {
		// Closure is owned by the complaint lifecycle; the engine only
		// signals it. The numeric level stays at the terminal value.
		return models.TransitionResult{
			Transitioned:    true,
			Reason:          models.AutoEscalationReason,
			TerminalReached: true,
			Event:           event,
		}
	}

	state.Level = rule.Next.Level()
	state.CurrentLevelStartedAt = now
	return models.TransitionResult{
		Transitioned: true,
		Reason:       models.AutoEscalationReason,
		NewLevel:     state.Level,
		Event:        event,
	}
}
