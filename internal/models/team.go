package models

import "fmt"

// Team is the closed set of routing destinations. Keeping it enumerable
// (rather than free-form strings) makes invalid-label detection in the
// disambiguation step exhaustive.
type Team string

const (
	TeamHardware Team = "Hardware Team"
	TeamSoftware Team = "Software Team"
	TeamNetwork  Team = "Network Team"
	TeamSecurity Team = "Security Team"
	TeamHR       Team = "HR Team"

	// TeamManualReview is the sentinel a ticket falls back to when the
	// disambiguation step cannot produce a recognized team. It is never a
	// routing destination with its own prototype set.
	TeamManualReview Team = "Manual Review"
)

// RoutableTeams lists every team that owns a prototype example set, in the
// stable order the corpus is loaded.
var RoutableTeams = []Team{
	TeamHardware,
	TeamSoftware,
	TeamNetwork,
	TeamSecurity,
	TeamHR,
}

// TeamDescriptions carries a short human description per team, used to seed
// prototype sets and in the disambiguation prompt.
var TeamDescriptions = map[Team]string{
	TeamHardware: "Hardware issues, like faulty devices or peripherals.",
	TeamSoftware: "Software or application problems.",
	TeamNetwork:  "Networking issues, such as connectivity or VPN.",
	TeamSecurity: "Security or compliance issues.",
	TeamHR:       "HR matters, like personal issues or benefits.",
}

// Routable reports whether t owns a prototype set.
func (t Team) Routable() bool {
	for _, rt := range RoutableTeams {
		if t == rt {
			return true
		}
	}
	return false
}

// ParseTeam maps a label to a known team. The Manual Review sentinel is
// accepted; anything else is an error.
func ParseTeam(label string) (Team, error) {
	t := Team(label)
	if t.Routable() || t == TeamManualReview {
		return t, nil
	}
	return "", fmt.Errorf("unknown team label %q", label)
}

// Priority is the ticket urgency tier assigned by the estimator.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// DefaultPriority is the safe fallback when estimation fails.
const DefaultPriority = PriorityMedium

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// SupportLevel is the support tier assigned by the estimator.
type SupportLevel string

const (
	LevelTier1 SupportLevel = "Tier 1"
	LevelTier2 SupportLevel = "Tier 2"
	LevelTier3 SupportLevel = "Tier 3"
)

// DefaultLevel is the safe fallback when estimation fails.
const DefaultLevel = LevelTier1

func (l SupportLevel) Valid() bool {
	switch l {
	case LevelTier1, LevelTier2, LevelTier3:
		return true
	}
	return false
}
