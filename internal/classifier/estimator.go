package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

const (
	// estimatorInputCap bounds prompt cost for very long tickets.
	estimatorInputCap     = 2000
	estimatorMaxTokens    = 64
	estimatorSystemPrompt = `You assess IT support tickets.

Assign a priority from: Low, Medium, High, Urgent.
Assign a support level from: Tier 1, Tier 2, Tier 3.

Respond with JSON only (no markdown):
{"priority": "High", "level": "Tier 2"}`
)

// Estimator assigns a priority tier and support level to a ticket through
// an independent completion call. It degrades instead of failing: any error,
// timeout, or out-of-set value yields the (Medium, Tier 1) default.
type Estimator struct {
	completer Completer
	logger    *zap.Logger
}

func NewEstimator(completer Completer, logger *zap.Logger) *Estimator {
	return &Estimator{completer: completer, logger: logger}
}

type estimatorReply struct {
	Priority string `json:"priority"`
	Level    string `json:"level"`
}

// Estimate returns the priority and support level for the given ticket
// text. It never returns an error; failures fall back to the safe default.
func (e *Estimator) Estimate(ctx context.Context, text string) (models.Priority, models.SupportLevel) {
	if len(text) > estimatorInputCap {
		text = text[:estimatorInputCap]
	}

	responseText, err := e.completer.Complete(ctx, estimatorSystemPrompt, "Ticket: "+text, estimatorMaxTokens)
	if err != nil {
		e.logger.Warn("Priority estimation failed, using defaults", zap.Error(err))
		return models.DefaultPriority, models.DefaultLevel
	}

	priority, level, err := parseEstimatorReply(responseText)
	if err != nil {
		e.logger.Warn("Priority estimation reply unusable, using defaults", zap.Error(err))
		return models.DefaultPriority, models.DefaultLevel
	}
	return priority, level
}

func parseEstimatorReply(responseText string) (models.Priority, models.SupportLevel, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var reply estimatorReply
	if err := json.Unmarshal([]byte(responseText), &reply); err != nil {
		return "", "", fmt.Errorf("parsing estimator reply %q: %w", responseText, err)
	}

	priority := models.Priority(strings.TrimSpace(reply.Priority))
	level := models.SupportLevel(strings.TrimSpace(reply.Level))
	if !priority.Valid() {
		return "", "", fmt.Errorf("invalid priority %q", reply.Priority)
	}
	if !level.Valid() {
		return "", "", fmt.Errorf("invalid support level %q", reply.Level)
	}
	return priority, level, nil
}
