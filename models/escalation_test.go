package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSeverityNormalize(t *testing.T) {
	for _, known := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
		got, fellBack := known.Normalize()
		if got != known || fellBack {
			t.Errorf("Normalize(%s) = %s, %v", known, got, fellBack)
		}
	}
	got, fellBack := Severity("urgent").Normalize()
	if got != FallbackSeverity || !fellBack {
		t.Errorf("Normalize(urgent) = %s, %v; want %s, true", got, fellBack, FallbackSeverity)
	}
}

func TestNextLevelJSON(t *testing.T) {
	data, err := json.Marshal(NextNumeric(3))
	if err != nil {
		t.Fatalf("marshal numeric: %v", err)
	}
	if string(data) != "3" {
		t.Errorf("numeric next level marshals to %s", data)
	}

	data, err = json.Marshal(NextClose())
	if err != nil {
		t.Fatalf("marshal close: %v", err)
	}
	if string(data) != `"close"` {
		t.Errorf("close sentinel marshals to %s", data)
	}

	var n NextLevel
	if err := json.Unmarshal([]byte("4"), &n); err != nil {
		t.Fatalf("unmarshal numeric: %v", err)
	}
	if n.IsClose() || n.Level() != 4 {
		t.Errorf("unmarshal 4 gave %s", n)
	}
	if err := json.Unmarshal([]byte(`"close"`), &n); err != nil {
		t.Fatalf("unmarshal close: %v", err)
	}
	if !n.IsClose() {
		t.Errorf("unmarshal close gave %s", n)
	}
	if err := json.Unmarshal([]byte(`"done"`), &n); err == nil {
		t.Error("expected an error for an unknown sentinel string")
	}
}

func TestTimerInfoJSON_RemainingInMilliseconds(t *testing.T) {
	info := TimerInfo{
		Active:    true,
		Remaining: time.Hour,
		NextLevel: NextNumeric(2),
	}
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]interface{}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := wire["remaining_millis"].(float64); got != 3600000 {
		t.Errorf("remaining_millis = %v, want 3600000", got)
	}
	if got := wire["next_level"].(float64); got != 2 {
		t.Errorf("next_level = %v, want 2", got)
	}
}

func TestEscalationRuleJSON_DelayInMilliseconds(t *testing.T) {
	rule := EscalationRule{
		Severity: SeverityMedium,
		Level:    1,
		Next:     NextNumeric(2),
		Delay:    12 * time.Hour,
	}
	data, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]interface{}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := wire["delay_millis"].(float64); got != 43200000 {
		t.Errorf("delay_millis = %v, want 43200000", got)
	}

	var back EscalationRule
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Delay != rule.Delay || back.Next.Level() != 2 || back.Severity != SeverityMedium {
		t.Errorf("round trip gave %+v", back)
	}
}

func TestNewRuleTable_DefaultsValid(t *testing.T) {
	table, err := NewRuleTable(DefaultRules())
	if err != nil {
		t.Fatalf("default rules failed validation: %v", err)
	}
	if got := table.MaxLevel(SeverityLow); got != 3 {
		t.Errorf("low chain terminal = %d, want 3", got)
	}
	if got := table.MaxLevel(SeverityMedium); got != 4 {
		t.Errorf("medium chain terminal = %d, want 4", got)
	}
	if got := table.MaxLevel(SeverityHigh); got != 5 {
		t.Errorf("high chain terminal = %d, want 5", got)
	}

	rule, ok := table.Rule(SeverityMedium, 1)
	if !ok || rule.Delay != 12*time.Hour || rule.Next.Level() != 2 {
		t.Errorf("medium level 1 rule = %+v, %v", rule, ok)
	}
	rule, ok = table.Rule(SeverityHigh, 5)
	if !ok || rule.Delay != 30*time.Hour || !rule.Next.IsClose() {
		t.Errorf("high terminal rule = %+v, %v", rule, ok)
	}
}

func TestNewRuleTable_RejectsBrokenChains(t *testing.T) {
	base := func() []EscalationRule { return DefaultRules() }

	cases := []struct {
		name    string
		mutate  func([]EscalationRule) []EscalationRule
		wantSub string
	}{
		{
			name: "duplicate rule",
			mutate: func(rules []EscalationRule) []EscalationRule {
				return append(rules, rules[0])
			},
			wantSub: "duplicate",
		},
		{
			name: "missing chain",
			mutate: func(rules []EscalationRule) []EscalationRule {
				var out []EscalationRule
				for _, r := range rules {
					if r.Severity != SeverityLow {
						out = append(out, r)
					}
				}
				return out
			},
			wantSub: "no chain",
		},
		{
			name: "gap in levels",
			mutate: func(rules []EscalationRule) []EscalationRule {
				var out []EscalationRule
				for _, r := range rules {
					if !(r.Severity == SeverityMedium && r.Level == 2) {
						out = append(out, r)
					}
				}
				return out
			},
			wantSub: "gap",
		},
		{
			name: "zero delay",
			mutate: func(rules []EscalationRule) []EscalationRule {
				for i := range rules {
					if rules[i].Severity == SeverityHigh && rules[i].Level == 3 {
						rules[i].Delay = 0
					}
				}
				return rules
			},
			wantSub: "non-positive delay",
		},
		{
			name: "terminal not close",
			mutate: func(rules []EscalationRule) []EscalationRule {
				for i := range rules {
					if rules[i].Severity == SeverityLow && rules[i].Level == 3 {
						rules[i].Next = NextNumeric(4)
					}
				}
				return rules
			},
			wantSub: "must point to close",
		},
		{
			name: "early close",
			mutate: func(rules []EscalationRule) []EscalationRule {
				for i := range rules {
					if rules[i].Severity == SeverityMedium && rules[i].Level == 2 {
						rules[i].Next = NextClose()
					}
				}
				return rules
			},
			wantSub: "below terminal",
		},
		{
			name: "backward pointer",
			mutate: func(rules []EscalationRule) []EscalationRule {
				for i := range rules {
					if rules[i].Severity == SeverityHigh && rules[i].Level == 2 {
						rules[i].Next = NextNumeric(1)
					}
				}
				return rules
			},
			wantSub: "backward",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRuleTable(tc.mutate(base()))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestRuleTable_Fallbacks(t *testing.T) {
	table := DefaultRuleTable()

	rule, ok := table.Rule(Severity("catastrophic"), 1)
	if !ok || rule.Severity != SeverityMedium {
		t.Errorf("unknown severity should use the medium chain, got %+v, %v", rule, ok)
	}

	rule, ok = table.Rule(SeverityHigh, 0)
	if !ok || rule.Level != 1 {
		t.Errorf("level 0 should use level 1, got %+v, %v", rule, ok)
	}
	rule, ok = table.Rule(SeverityHigh, -3)
	if !ok || rule.Level != 1 {
		t.Errorf("negative level should use level 1, got %+v, %v", rule, ok)
	}

	if _, ok := table.Rule(SeverityLow, 4); ok {
		t.Error("level beyond the chain must report no rule")
	}
}

func TestRemainingHours(t *testing.T) {
	cases := []struct {
		remaining    time.Duration
		hours, mins  int
	}{
		{time.Hour, 1, 0},
		{90 * time.Minute, 1, 30},
		{time.Hour + 59*time.Minute + 59*time.Second, 1, 59},
		{59 * time.Second, 0, 0},
		{25*time.Hour + time.Minute, 25, 1},
	}
	for _, tc := range cases {
		info := TimerInfo{Active: true, Remaining: tc.remaining}
		h, m := info.RemainingHours()
		if h != tc.hours || m != tc.mins {
			t.Errorf("RemainingHours(%v) = %dh%dm, want %dh%dm", tc.remaining, h, m, tc.hours, tc.mins)
		}
	}

	inactive := TimerInfo{Active: false, Remaining: 5 * time.Hour}
	if h, m := inactive.RemainingHours(); h != 0 || m != 0 {
		t.Errorf("inactive timer reports %dh%dm", h, m)
	}
	overdue := TimerInfo{Active: true, Overdue: true, Remaining: 0}
	if h, m := overdue.RemainingHours(); h != 0 || m != 0 {
		t.Errorf("overdue timer reports %dh%dm", h, m)
	}
}

func TestEscalationLevelInfo(t *testing.T) {
	for level := 1; level <= 5; level++ {
		info := EscalationLevelInfo(level)
		if info.Level != level || info.Label == "" || info.Badge == "" {
			t.Errorf("level %d info incomplete: %+v", level, info)
		}
	}
	if got := EscalationLevelInfo(0); got.Level != 1 {
		t.Errorf("out-of-range level should fall back to 1, got %+v", got)
	}
	if got := EscalationLevelInfo(99); got.Level != 1 {
		t.Errorf("out-of-range level should fall back to 1, got %+v", got)
	}
}
