package safety

import (
	"testing"
	"time"
)

func Test_ConfirmationTracker_NeedsConfirmation_Cases(t *testing.T) {
	ct := NewConfirmationTracker([]string{"pipefy_card_delete", "pipefy_table_clear"})

	tests := []struct {
		tool string
		want bool
	}{
		{tool: "pipefy_card_delete", want: true},
		{tool: "pipefy_table_clear", want: true},
		{tool: "pipefy_card_get", want: false},
		{tool: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			if got := ct.NeedsConfirmation(tt.tool); got != tt.want {
				t.Errorf("NeedsConfirmation(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func Test_ConfirmationTracker_NilDestructiveList(t *testing.T) {
	ct := NewConfirmationTracker(nil)
	if ct == nil {
		t.Fatal("NewConfirmationTracker(nil) returned nil")
	}
	if ct.NeedsConfirmation("pipefy_card_delete") {
		t.Error("no tool should need confirmation with a nil list")
	}
}

func Test_ConfirmationTracker_Confirm_Cases(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		resource string
		useToken func(issued string) string
		want     bool
	}{
		{
			name:     "matching tool and resource",
			tool:     "pipefy_card_delete",
			resource: "card 42",
			useToken: func(issued string) string { return issued },
			want:     true,
		},
		{
			name:     "different resource",
			tool:     "pipefy_card_delete",
			resource: "card 43",
			useToken: func(issued string) string { return issued },
			want:     false,
		},
		{
			name:     "different tool",
			tool:     "pipefy_pipe_clear",
			resource: "card 42",
			useToken: func(issued string) string { return issued },
			want:     false,
		},
		{
			name:     "unknown token",
			tool:     "pipefy_card_delete",
			resource: "card 42",
			useToken: func(string) string { return "never-issued" },
			want:     false,
		},
		{
			name:     "empty token",
			tool:     "pipefy_card_delete",
			resource: "card 42",
			useToken: func(string) string { return "" },
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := NewConfirmationTracker([]string{"pipefy_card_delete"})
			issued := ct.RequestConfirmation("pipefy_card_delete", "card 42", "Delete card 42")
			if got := ct.Confirm(tt.tool, tt.resource, tt.useToken(issued)); got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_ConfirmationTracker_TokenSingleUse(t *testing.T) {
	ct := NewConfirmationTracker([]string{"pipefy_table_clear"})
	token := ct.RequestConfirmation("pipefy_table_clear", "table T1", "Clear T1")

	if !ct.Confirm("pipefy_table_clear", "table T1", token) {
		t.Fatal("first Confirm() should return true")
	}
	if ct.Confirm("pipefy_table_clear", "table T1", token) {
		t.Error("second Confirm() should return false (token is single-use)")
	}
}

func Test_ConfirmationTracker_MismatchConsumesToken(t *testing.T) {
	ct := NewConfirmationTracker([]string{"pipefy_card_delete"})
	token := ct.RequestConfirmation("pipefy_card_delete", "card 1", "Delete card 1")

	if ct.Confirm("pipefy_card_delete", "card 2", token) {
		t.Fatal("mismatched resource must not confirm")
	}
	if ct.Confirm("pipefy_card_delete", "card 1", token) {
		t.Error("token should have been consumed by the mismatched attempt")
	}
}

func Test_ConfirmationTracker_TokenExpiry(t *testing.T) {
	current := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ct := NewConfirmationTracker([]string{"pipefy_pipe_clear"})
	ct.now = func() time.Time { return current }

	fresh := ct.RequestConfirmation("pipefy_pipe_clear", "pipe 7", "Clear pipe 7")
	stale := ct.RequestConfirmation("pipefy_pipe_clear", "pipe 7", "Clear pipe 7")

	current = current.Add(4 * time.Minute)
	if !ct.Confirm("pipefy_pipe_clear", "pipe 7", fresh) {
		t.Error("token should be valid inside the TTL")
	}

	current = current.Add(2 * time.Minute)
	if ct.Confirm("pipefy_pipe_clear", "pipe 7", stale) {
		t.Error("token should be rejected after the TTL")
	}
}

func Test_ConfirmationTracker_TokensUnique(t *testing.T) {
	ct := NewConfirmationTracker(nil)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token := ct.RequestConfirmation("t", "r", "d")
		if token == "" {
			t.Fatal("RequestConfirmation() returned empty token")
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
}
