package service

import (
	"civicpulse/models"
	"testing"
	"time"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *EscalationEngine {
	t.Helper()
	table, err := models.NewRuleTable(models.DefaultRules())
	if err != nil {
		t.Fatalf("default rule table failed validation: %v", err)
	}
	return NewEscalationEngine(table)
}

func openState(severity models.Severity, level int) models.EscalationState {
	return models.EscalationState{
		ComplaintID:           42,
		Severity:              severity,
		Level:                 level,
		Status:                models.StatusOpen,
		CurrentLevelStartedAt: testStart,
	}
}

func TestTimeUntilEscalation_OverdueBoundary(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityMedium, 1) // 12h window

	justBefore := testStart.Add(12*time.Hour - time.Millisecond)
	info := engine.TimeUntilEscalation(state, justBefore)
	if !info.Active {
		t.Fatal("expected active timer")
	}
	if info.Overdue {
		t.Error("expected not overdue one millisecond before the deadline")
	}
	if info.Remaining != time.Millisecond {
		t.Errorf("expected 1ms remaining, got %v", info.Remaining)
	}

	atDeadline := testStart.Add(12 * time.Hour)
	info = engine.TimeUntilEscalation(state, atDeadline)
	if !info.Overdue {
		t.Error("expected overdue exactly at the deadline")
	}
}

func TestTimeUntilEscalation_MediumLevelOneScenario(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityMedium, 1)

	now := testStart.Add(11 * time.Hour)
	info := engine.TimeUntilEscalation(state, now)
	if info.Overdue {
		t.Fatal("expected not overdue at 11h of a 12h window")
	}
	if info.Remaining != time.Hour {
		t.Errorf("expected 1h remaining, got %v", info.Remaining)
	}
	if info.NextLevel.IsClose() || info.NextLevel.Level() != 2 {
		t.Errorf("expected next level 2, got %s", info.NextLevel)
	}

	progress := engine.Progress(state, now)
	if progress < 91.6 || progress > 91.7 {
		t.Errorf("expected progress about 91.67, got %f", progress)
	}
}

func TestTimeUntilEscalation_InactiveWhenNotOpen(t *testing.T) {
	engine := newTestEngine(t)
	farFuture := testStart.Add(1000 * time.Hour)

	for _, status := range []models.ComplaintStatus{models.StatusResolved, models.StatusRejected} {
		state := openState(models.SeverityHigh, 2)
		state.Status = status
		if info := engine.TimeUntilEscalation(state, farFuture); info.Active {
			t.Errorf("status %s: expected inactive timer", status)
		}
		if p := engine.Progress(state, farFuture); p != 0 {
			t.Errorf("status %s: expected progress 0, got %f", status, p)
		}
	}
}

func TestTimeUntilEscalation_InactiveBeyondChain(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityLow, 4) // low chain ends at 3

	if info := engine.TimeUntilEscalation(state, testStart.Add(time.Hour)); info.Active {
		t.Error("expected inactive timer beyond the chain")
	}
	if p := engine.Progress(state, testStart.Add(time.Hour)); p != 0 {
		t.Errorf("expected progress 0 beyond the chain, got %f", p)
	}
}

func TestProgress_MonotoneAndClamped(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityHigh, 1) // 6h window

	prev := -1.0
	for _, offset := range []time.Duration{
		-time.Hour, 0, time.Minute, time.Hour, 3 * time.Hour,
		6*time.Hour - time.Millisecond, 6 * time.Hour, 48 * time.Hour,
	} {
		p := engine.Progress(state, testStart.Add(offset))
		if p < 0 || p > 100 {
			t.Fatalf("progress out of range at offset %v: %f", offset, p)
		}
		if p < prev {
			t.Fatalf("progress decreased at offset %v: %f < %f", offset, p, prev)
		}
		prev = p
	}

	if p := engine.Progress(state, testStart.Add(6*time.Hour-time.Millisecond)); p >= 100 {
		t.Errorf("progress reached 100 before the deadline: %f", p)
	}
	if p := engine.Progress(state, testStart.Add(6*time.Hour)); p != 100 {
		t.Errorf("expected exactly 100 at the deadline, got %f", p)
	}
}

func TestRemainingHours_FloorsTruncation(t *testing.T) {
	info := models.TimerInfo{
		Active:    true,
		Remaining: time.Hour + 59*time.Minute + 59*time.Second,
	}
	hours, minutes := info.RemainingHours()
	if hours != 1 || minutes != 59 {
		t.Errorf("expected 1h59m, got %dh%dm", hours, minutes)
	}

	lower := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	upper := time.Duration(hours)*time.Hour + time.Duration(minutes+1)*time.Minute
	if lower > info.Remaining || info.Remaining >= upper {
		t.Errorf("display breakdown %dh%dm does not bracket %v", hours, minutes, info.Remaining)
	}
}

func TestTryEscalate_AdvancesLevel(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityMedium, 1)
	now := testStart.Add(12 * time.Hour)

	result := engine.TryEscalate(&state, now)
	if !result.Transitioned {
		t.Fatalf("expected transition, got reason %q", result.Reason)
	}
	if result.NewLevel != 2 || state.Level != 2 {
		t.Errorf("expected level 2, got result=%d state=%d", result.NewLevel, state.Level)
	}
	if !state.CurrentLevelStartedAt.Equal(now) {
		t.Errorf("expected window reset to %v, got %v", now, state.CurrentLevelStartedAt)
	}
	if result.Event == nil {
		t.Fatal("expected a transition event")
	}
	if result.Event.FromLevel != 1 || result.Event.ToLevel.Level() != 2 {
		t.Errorf("expected event 1 -> 2, got %d -> %s", result.Event.FromLevel, result.Event.ToLevel)
	}
	if result.Event.Reason != models.AutoEscalationReason {
		t.Errorf("unexpected event reason %q", result.Event.Reason)
	}
	if result.Event.EscalatedBy != nil {
		t.Error("auto escalation must not carry an actor")
	}
}

func TestTryEscalate_NotDue(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityMedium, 1)

	result := engine.TryEscalate(&state, testStart.Add(11*time.Hour))
	if result.Transitioned {
		t.Fatal("expected no transition before the deadline")
	}
	if result.Reason != models.TransitionReasonNotDue {
		t.Errorf("expected reason not-due, got %q", result.Reason)
	}
	if state.Level != 1 {
		t.Errorf("state mutated on no-op: level %d", state.Level)
	}
}

func TestTryEscalate_IdempotentForSameInstant(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityMedium, 1)
	now := testStart.Add(13 * time.Hour)

	first := engine.TryEscalate(&state, now)
	if !first.Transitioned {
		t.Fatalf("expected first call to transition, got %q", first.Reason)
	}
	second := engine.TryEscalate(&state, now)
	if second.Transitioned {
		t.Error("second call at the same instant must not transition again")
	}
	if second.Reason != models.TransitionReasonNotDue {
		t.Errorf("expected not-due on second call, got %q", second.Reason)
	}
	if state.Level != 2 {
		t.Errorf("expected level to stay 2, got %d", state.Level)
	}
}

func TestTryEscalate_CascadesAcrossMissedWindows(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityMedium, 1)

	// Miss the 12h window, then the 24h window that starts at the
	// first transition.
	t1 := testStart.Add(12 * time.Hour)
	if result := engine.TryEscalate(&state, t1); !result.Transitioned {
		t.Fatalf("expected first transition, got %q", result.Reason)
	}
	t2 := t1.Add(24 * time.Hour)
	result := engine.TryEscalate(&state, t2)
	if !result.Transitioned || result.NewLevel != 3 {
		t.Fatalf("expected cascade to level 3, got %+v", result)
	}
}

func TestTryEscalate_TerminalClose(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityHigh, 5) // terminal, 30h window
	now := testStart.Add(30 * time.Hour)

	result := engine.TryEscalate(&state, now)
	if !result.Transitioned || !result.TerminalReached {
		t.Fatalf("expected terminal close signal, got %+v", result)
	}
	if state.Level != 5 {
		t.Errorf("level must keep its terminal numeric value, got %d", state.Level)
	}
	if result.Event == nil || !result.Event.ToLevel.IsClose() {
		t.Error("expected close event")
	}
	if result.Event.FromLevel != 5 {
		t.Errorf("expected close event from level 5, got %d", result.Event.FromLevel)
	}
}

func TestTryEscalate_LowSeverityTerminalStop(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityLow, 3) // low chain terminal

	result := engine.TryEscalate(&state, testStart.Add(96*time.Hour))
	if !result.TerminalReached {
		t.Fatalf("expected terminal close for low level 3, got %+v", result)
	}

	// Beyond the chain there is nothing left to evaluate.
	state = openState(models.SeverityLow, 4)
	result = engine.TryEscalate(&state, testStart.Add(1000*time.Hour))
	if result.Transitioned {
		t.Error("expected no transition beyond the chain")
	}
	if result.Reason != models.TransitionReasonTerminal {
		t.Errorf("expected reason terminal, got %q", result.Reason)
	}
}

func TestTryEscalate_SuppressedWhenClosed(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityHigh, 2)
	state.Status = models.StatusResolved

	result := engine.TryEscalate(&state, testStart.Add(1000*time.Hour))
	if result.Transitioned {
		t.Error("resolved complaint must not transition")
	}
	if result.Reason != models.TransitionReasonInactive {
		t.Errorf("expected reason inactive, got %q", result.Reason)
	}
}

func TestTryEscalate_SeverityFallback(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.Severity("catastrophic"), 1)

	// Medium chain applies: 12h window to level 2.
	result := engine.TryEscalate(&state, testStart.Add(12*time.Hour))
	if !result.Transitioned || result.NewLevel != 2 {
		t.Fatalf("expected medium fallback transition to 2, got %+v", result)
	}
}

func TestTryEscalate_LevelFallback(t *testing.T) {
	engine := newTestEngine(t)
	state := openState(models.SeverityMedium, 0)

	// Level 0 behaves as level 1.
	result := engine.TryEscalate(&state, testStart.Add(12*time.Hour))
	if !result.Transitioned || result.NewLevel != 2 {
		t.Fatalf("expected level-1 fallback transition to 2, got %+v", result)
	}
}
