package classifier

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

func TestEstimatorParsesValidReply(t *testing.T) {
	completer := &fakeCompleter{response: `{"priority": "Urgent", "level": "Tier 3"}`}
	estimator := NewEstimator(completer, zap.NewNop())

	priority, level := estimator.Estimate(context.Background(), "production database is down")
	if priority != models.PriorityUrgent {
		t.Errorf("expected Urgent, got %q", priority)
	}
	if level != models.LevelTier3 {
		t.Errorf("expected Tier 3, got %q", level)
	}
}

func TestEstimatorDefaultsOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "completion unavailable", err: fmt.Errorf("service unavailable")},
		{name: "not json", response: "it seems urgent"},
		{name: "invalid priority", response: `{"priority": "Critical", "level": "Tier 1"}`},
		{name: "invalid level", response: `{"priority": "High", "level": "Tier 4"}`},
		{name: "empty reply", response: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{response: tt.response, err: tt.err}
			estimator := NewEstimator(completer, zap.NewNop())

			priority, level := estimator.Estimate(context.Background(), "anything")
			if priority != models.DefaultPriority || level != models.DefaultLevel {
				t.Errorf("expected (%q, %q), got (%q, %q)",
					models.DefaultPriority, models.DefaultLevel, priority, level)
			}
		})
	}
}

func TestEstimatorTruncatesLongInput(t *testing.T) {
	completer := &fakeCompleter{response: `{"priority": "Low", "level": "Tier 1"}`}
	estimator := NewEstimator(completer, zap.NewNop())

	long := strings.Repeat("x", estimatorInputCap*3)
	estimator.Estimate(context.Background(), long)

	if len(completer.userPrompt) > estimatorInputCap+len("Ticket: ") {
		t.Errorf("prompt not truncated: %d chars", len(completer.userPrompt))
	}
}

func TestEstimatorStripsCodeFences(t *testing.T) {
	completer := &fakeCompleter{response: "```json\n{\"priority\": \"High\", \"level\": \"Tier 2\"}\n```"}
	estimator := NewEstimator(completer, zap.NewNop())

	priority, level := estimator.Estimate(context.Background(), "laptop on fire")
	if priority != models.PriorityHigh || level != models.LevelTier2 {
		t.Errorf("expected (High, Tier 2), got (%q, %q)", priority, level)
	}
}
