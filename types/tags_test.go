package types

import "testing"

func TestTags_IsKept(t *testing.T) {
	tests := []struct {
		name string
		tags Tags
		want bool
	}{
		{
			name: "kept resource",
			tags: Tags{VartijaKeep: true},
			want: true,
		},
		{
			name: "ordinary resource",
			tags: Tags{Name: "web-server"},
			want: false,
		},
		{
			name: "zero tags",
			tags: Tags{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tags.IsKept(); got != tt.want {
				t.Errorf("IsKept() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTags_GetOwner(t *testing.T) {
	t.Run("owner tag wins", func(t *testing.T) {
		tags := Tags{Owner: "alice", Team: "platform"}
		if got := tags.GetOwner(); got != "alice" {
			t.Errorf("GetOwner() = %q, want alice", got)
		}
	})

	t.Run("falls back to team", func(t *testing.T) {
		tags := Tags{Team: "platform"}
		if got := tags.GetOwner(); got != "platform" {
			t.Errorf("GetOwner() = %q, want platform", got)
		}
	})
}

func TestTagsFromMap(t *testing.T) {
	t.Run("keep and exempt tags", func(t *testing.T) {
		tags := TagsFromMap(map[string]string{
			"vartija:keep":   "true",
			"vartija:exempt": "approved public endpoint",
			"Name":           "bastion",
			"Environment":    "prod",
		})

		if !tags.VartijaKeep {
			t.Error("VartijaKeep should be true")
		}
		if tags.VartijaExempt != "approved public endpoint" {
			t.Errorf("VartijaExempt = %q", tags.VartijaExempt)
		}
		if tags.Name != "bastion" {
			t.Errorf("Name = %q, want bastion", tags.Name)
		}
		if tags.Environment != "prod" {
			t.Errorf("Environment = %q, want prod", tags.Environment)
		}
	})

	t.Run("keep tag must be literal true", func(t *testing.T) {
		tags := TagsFromMap(map[string]string{"vartija:keep": "yes"})
		if tags.VartijaKeep {
			t.Error("VartijaKeep should require value true")
		}
	})

	t.Run("roundtrip", func(t *testing.T) {
		original := map[string]string{
			"vartija:keep": "true",
			"Name":         "db-primary",
			"Team":         "data",
			"CostCenter":   "cc-42",
		}

		got := TagsFromMap(original).ToMap()
		for key, want := range original {
			if got[key] != want {
				t.Errorf("ToMap()[%q] = %q, want %q", key, got[key], want)
			}
		}
	})
}

func TestSeveritySummary(t *testing.T) {
	findings := []Finding{
		{CheckID: "a", Severity: SeverityHigh},
		{CheckID: "b", Severity: SeverityHigh},
		{CheckID: "c", Severity: SeverityLow},
		{CheckID: "d", Severity: SeverityHigh, Exempted: true},
	}

	summary := SeveritySummary(findings)
	if summary[SeverityHigh] != 2 {
		t.Errorf("high count = %d, want 2 (exempted excluded)", summary[SeverityHigh])
	}
	if summary[SeverityLow] != 1 {
		t.Errorf("low count = %d, want 1", summary[SeverityLow])
	}
}

func TestSeverity_Rank(t *testing.T) {
	if SeverityCritical.Rank() <= SeverityHigh.Rank() {
		t.Error("critical should outrank high")
	}
	if SeverityInfo.Rank() <= Severity("unknown").Rank() {
		t.Error("info should outrank unknown severities")
	}
}
