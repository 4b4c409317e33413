package models

import "testing"

func TestRoutableTeamsHavePrototypeMetadata(t *testing.T) {
	if len(RoutableTeams) != 5 {
		t.Fatalf("expected 5 routable teams, got %d", len(RoutableTeams))
	}
	for _, team := range RoutableTeams {
		if !team.Routable() {
			t.Errorf("%q must be routable", team)
		}
		if TeamDescriptions[team] == "" {
			t.Errorf("%q has no description", team)
		}
	}
}

func TestManualReviewIsNotRoutable(t *testing.T) {
	if TeamManualReview.Routable() {
		t.Error("Manual Review must never own a prototype set")
	}
}

func TestParseTeam(t *testing.T) {
	tests := []struct {
		label   string
		want    Team
		wantErr bool
	}{
		{"Network Team", TeamNetwork, false},
		{"HR Team", TeamHR, false},
		{"Manual Review", TeamManualReview, false},
		{"network team", "", true},
		{"Networking", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTeam(tt.label)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTeam(%q) = %q, want error", tt.label, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTeam(%q) = (%q, %v), want %q", tt.label, got, err, tt.want)
		}
	}
}

func TestTicketStatusValid(t *testing.T) {
	for _, s := range []TicketStatus{StatusPending, StatusClassified, StatusRouted, StatusClosed} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if TicketStatus("archived").Valid() {
		t.Error("archived is not a lifecycle state")
	}
}

func TestPriorityAndLevelValid(t *testing.T) {
	if !PriorityUrgent.Valid() || Priority("Critical").Valid() {
		t.Error("priority validation broken")
	}
	if !LevelTier3.Valid() || SupportLevel("Tier 4").Valid() {
		t.Error("support level validation broken")
	}
	if !DefaultPriority.Valid() || !DefaultLevel.Valid() {
		t.Error("fallback values must themselves be valid")
	}
}

func TestTicketText(t *testing.T) {
	ticket := &Ticket{Title: "Laptop will not boot", Description: "Black screen after the vendor logo."}
	if got := ticket.Text(); got != "Laptop will not boot. Black screen after the vendor logo." {
		t.Errorf("Text() = %q", got)
	}

	bare := &Ticket{Title: "Laptop will not boot"}
	if got := bare.Text(); got != "Laptop will not boot" {
		t.Errorf("Text() without description = %q", got)
	}
}
