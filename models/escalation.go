package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity classifies complaint urgency and selects which escalation
// chain applies. Higher severities run longer chains with shorter
// per-level windows.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// FallbackSeverity is used when a complaint carries an unrecognized
// severity value. Callers that apply the fallback should log it.
const FallbackSeverity = SeverityMedium

// Normalize maps an unknown severity to the documented fallback.
// The second return reports whether the fallback was applied.
func (s Severity) Normalize() (Severity, bool) {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return s, false
	}
	return FallbackSeverity, true
}

// NextLevel is the target of an escalation rule: either a numeric level
// or the close sentinel. The zero value is invalid.
type NextLevel struct {
	level int
	close bool
}

// NextNumeric returns a NextLevel pointing at a numeric level.
func NextNumeric(level int) NextLevel { return NextLevel{level: level} }

// NextClose returns the terminal NextLevel ("the next transition closes
// the complaint").
func NextClose() NextLevel { return NextLevel{close: true} }

// IsClose reports whether this is the close sentinel.
func (n NextLevel) IsClose() bool { return n.close }

// Level returns the numeric target level. Only meaningful when
// IsClose() is false.
func (n NextLevel) Level() int { return n.level }

func (n NextLevel) String() string {
	if n.close {
		return "close"
	}
	return fmt.Sprintf("%d", n.level)
}

// MarshalJSON serializes as a number, or the string "close" for the
// terminal sentinel (wire shape shared with display clients).
func (n NextLevel) MarshalJSON() ([]byte, error) {
	if n.close {
		return json.Marshal("close")
	}
	return json.Marshal(n.level)
}

// UnmarshalJSON accepts a number or the string "close".
func (n *NextLevel) UnmarshalJSON(data []byte) error {
	var level int
	if err := json.Unmarshal(data, &level); err == nil {
		*n = NextNumeric(level)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid next_level: %s", string(data))
	}
	if s != "close" {
		return fmt.Errorf("invalid next_level %q (want number or \"close\")", s)
	}
	*n = NextClose()
	return nil
}

// EscalationRule is one entry of the per-severity escalation chain:
// after Delay at Level, the complaint moves to Next.
type EscalationRule struct {
	Severity Severity
	Level    int
	Next     NextLevel
	Delay    time.Duration
}

// escalationRuleWire is the serialized rule shape, shared with display
// clients. Delay crosses the wire in milliseconds, not Duration
// nanoseconds.
type escalationRuleWire struct {
	Severity Severity  `json:"severity"`
	Level    int       `json:"level"`
	Next     NextLevel `json:"next_level"`
	Delay    int64     `json:"delay_millis"`
}

// MarshalJSON serializes the rule with delay_millis in milliseconds.
func (r EscalationRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(escalationRuleWire{
		Severity: r.Severity,
		Level:    r.Level,
		Next:     r.Next,
		Delay:    r.Delay.Milliseconds(),
	})
}

// UnmarshalJSON reads the wire shape back, converting delay_millis to a
// Duration.
func (r *EscalationRule) UnmarshalJSON(data []byte) error {
	var w escalationRuleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = EscalationRule{
		Severity: w.Severity,
		Level:    w.Level,
		Next:     w.Next,
		Delay:    time.Duration(w.Delay) * time.Millisecond,
	}
	return nil
}

// RuleTable holds the escalation chains for all severities. It is
// immutable after construction; build one with NewRuleTable and inject
// it into the engine.
type RuleTable struct {
	rules map[Severity]map[int]EscalationRule
	max   map[Severity]int
}

// NewRuleTable builds a table from a flat rule list and validates the
// chain invariants. A validation error here is a configuration error
// and must abort startup.
func NewRuleTable(rules []EscalationRule) (*RuleTable, error) {
	t := &RuleTable{
		rules: make(map[Severity]map[int]EscalationRule),
		max:   make(map[Severity]int),
	}
	for _, r := range rules {
		bySeverity, ok := t.rules[r.Severity]
		if !ok {
			bySeverity = make(map[int]EscalationRule)
			t.rules[r.Severity] = bySeverity
		}
		if _, dup := bySeverity[r.Level]; dup {
			return nil, fmt.Errorf("escalation rules: duplicate rule for severity %s level %d", r.Severity, r.Level)
		}
		bySeverity[r.Level] = r
		if r.Level > t.max[r.Severity] {
			t.max[r.Severity] = r.Level
		}
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate enforces the chain invariants per severity: contiguous
// levels starting at 1, strictly positive delays, numeric next levels
// strictly forward and present, exactly one close rule at the top.
func (t *RuleTable) validate() error {
	for _, severity := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
		bySeverity := t.rules[severity]
		if len(bySeverity) == 0 {
			return fmt.Errorf("escalation rules: no chain for severity %s", severity)
		}
		max := t.max[severity]
		for level := 1; level <= max; level++ {
			rule, ok := bySeverity[level]
			if !ok {
				return fmt.Errorf("escalation rules: severity %s has a gap at level %d", severity, level)
			}
			if rule.Delay <= 0 {
				return fmt.Errorf("escalation rules: severity %s level %d has non-positive delay", severity, level)
			}
			if level == max {
				if !rule.Next.IsClose() {
					return fmt.Errorf("escalation rules: severity %s terminal level %d must point to close", severity, level)
				}
				continue
			}
			if rule.Next.IsClose() {
				return fmt.Errorf("escalation rules: severity %s level %d points to close below terminal level %d", severity, level, max)
			}
			if rule.Next.Level() <= level {
				return fmt.Errorf("escalation rules: severity %s level %d points backward to %d", severity, level, rule.Next.Level())
			}
			if _, ok := bySeverity[rule.Next.Level()]; !ok {
				return fmt.Errorf("escalation rules: severity %s level %d points to missing level %d", severity, level, rule.Next.Level())
			}
		}
	}
	return nil
}

// Rule looks up the rule for (severity, level). Unknown severity maps
// to the fallback severity; level below 1 maps to level 1. ok is false
// when the level has no entry, which callers read as "terminal state
// reached" (level beyond the chain).
func (t *RuleTable) Rule(severity Severity, level int) (EscalationRule, bool) {
	severity, _ = severity.Normalize()
	if level < 1 {
		level = 1
	}
	rule, ok := t.rules[severity][level]
	return rule, ok
}

// MaxLevel returns the terminal (highest configured) level for a
// severity, after fallback normalization.
func (t *RuleTable) MaxLevel(severity Severity) int {
	severity, _ = severity.Normalize()
	return t.max[severity]
}

// DefaultRules is the production escalation table. Low severity runs a
// 3-level chain, medium 4, high 5; windows shrink as severity rises.
func DefaultRules() []EscalationRule {
	return []EscalationRule{
		{Severity: SeverityLow, Level: 1, Next: NextNumeric(2), Delay: 48 * time.Hour},
		{Severity: SeverityLow, Level: 2, Next: NextNumeric(3), Delay: 72 * time.Hour},
		{Severity: SeverityLow, Level: 3, Next: NextClose(), Delay: 96 * time.Hour},

		{Severity: SeverityMedium, Level: 1, Next: NextNumeric(2), Delay: 12 * time.Hour},
		{Severity: SeverityMedium, Level: 2, Next: NextNumeric(3), Delay: 24 * time.Hour},
		{Severity: SeverityMedium, Level: 3, Next: NextNumeric(4), Delay: 36 * time.Hour},
		{Severity: SeverityMedium, Level: 4, Next: NextClose(), Delay: 48 * time.Hour},

		{Severity: SeverityHigh, Level: 1, Next: NextNumeric(2), Delay: 6 * time.Hour},
		{Severity: SeverityHigh, Level: 2, Next: NextNumeric(3), Delay: 8 * time.Hour},
		{Severity: SeverityHigh, Level: 3, Next: NextNumeric(4), Delay: 12 * time.Hour},
		{Severity: SeverityHigh, Level: 4, Next: NextNumeric(5), Delay: 24 * time.Hour},
		{Severity: SeverityHigh, Level: 5, Next: NextClose(), Delay: 30 * time.Hour},
	}
}

// DefaultRuleTable returns the validated production table. Panics on a
// broken default table, which can only happen from a bad code change.
func DefaultRuleTable() *RuleTable {
	t, err := NewRuleTable(DefaultRules())
	if err != nil {
		panic(err)
	}
	return t
}

// EscalationEvent is an immutable audit record of one level
// transition. ToLevel carries the close sentinel when the transition
// signals closure rather than a numeric advance.
type EscalationEvent struct {
	EventID     int64     `db:"event_id" json:"event_id"`
	ComplaintID int64     `db:"complaint_id" json:"complaint_id"`
	FromLevel   int       `db:"from_level" json:"from_level"`
	ToLevel     NextLevel `db:"to_level" json:"to_level"`
	EscalatedAt time.Time `db:"escalated_at" json:"escalated_at"`
	Reason      string    `db:"reason" json:"reason"`
	EscalatedBy *int64    `db:"escalated_by" json:"escalated_by,omitempty"` // nil for the system
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EscalationState is the escalation-relevant snapshot of a complaint.
// AssignedOfficerID is nil until an officer accepts; it addresses the
// notices a transition emits.
type EscalationState struct {
	ComplaintID           int64           `json:"complaint_id"`
	Severity              Severity        `json:"severity"`
	Level                 int             `json:"level"`
	Status                ComplaintStatus `json:"status"`
	CurrentLevelStartedAt time.Time       `json:"current_level_started_at"`
	AssignedOfficerID     *int64          `json:"assigned_officer_id,omitempty"`
}

// TimerInfo is the result of a deadline computation. Active is false
// when the complaint is no longer open or the chain is exhausted; in
// that case no other field is meaningful.
type TimerInfo struct {
	Active    bool
	Overdue   bool
	Remaining time.Duration
	NextLevel NextLevel
}

// MarshalJSON serializes the timer with remaining_millis in
// milliseconds, matching the rule table's wire unit.
func (t TimerInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Active    bool      `json:"active"`
		Overdue   bool      `json:"overdue"`
		Remaining int64     `json:"remaining_millis"`
		NextLevel NextLevel `json:"next_level"`
	}{
		Active:    t.Active,
		Overdue:   t.Overdue,
		Remaining: t.Remaining.Milliseconds(),
		NextLevel: t.NextLevel,
	})
}

// RemainingHours returns the floor hours/minutes breakdown of the
// remaining window. Floor truncation only: the display never rounds up
// past the true deadline.
func (t TimerInfo) RemainingHours() (hours, minutes int) {
	if !t.Active || t.Overdue || t.Remaining <= 0 {
		return 0, 0
	}
	total := t.Remaining.Milliseconds() / int64(time.Minute/time.Millisecond)
	return int(total / 60), int(total % 60)
}

// Transition no-op reasons reported by TryEscalate.
const (
	TransitionReasonTerminal = "terminal"
	TransitionReasonNotDue   = "not-due"
	TransitionReasonInactive = "inactive"
)

// AutoEscalationReason is recorded on every deadline-driven event.
const AutoEscalationReason = "auto-escalation: deadline exceeded"

// TransitionResult reports the outcome of one TryEscalate evaluation.
type TransitionResult struct {
	Transitioned    bool             `json:"transitioned"`
	Reason          string           `json:"reason"`
	NewLevel        int              `json:"new_level,omitempty"`
	TerminalReached bool             `json:"terminal_reached"`
	Event           *EscalationEvent `json:"event,omitempty"`
}

// LevelInfo is cosmetic display metadata for an escalation level. It is
// independent of the rule table.
type LevelInfo struct {
	Level      int    `json:"level"`
	Label      string `json:"label"`
	ColorToken string `json:"color_token"`
	Icon       string `json:"icon"`
	Badge      string `json:"badge"`
}

var levelInfoTable = map[int]LevelInfo{
	1: {Level: 1, Label: "Filed", ColorToken: "green", Icon: "clipboard", Badge: "L1"},
	2: {Level: 2, Label: "Supervisor Review", ColorToken: "yellow", Icon: "eye", Badge: "L2"},
	3: {Level: 3, Label: "Department Head", ColorToken: "orange", Icon: "alert-triangle", Badge: "L3"},
	4: {Level: 4, Label: "Commissioner", ColorToken: "red", Icon: "shield", Badge: "L4"},
	5: {Level: 5, Label: "Ombudsman", ColorToken: "purple", Icon: "gavel", Badge: "L5"},
}

// EscalationLevelInfo returns display metadata for a level. Out-of-range
// levels fall back to level 1.
func EscalationLevelInfo(level int) LevelInfo {
	if info, ok := levelInfoTable[level]; ok {
		return info
	}
	return levelInfoTable[1]
}
