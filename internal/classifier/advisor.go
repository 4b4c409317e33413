package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

// ErrBadAdvisorReply marks a disambiguation response that could not be
// parsed or named an unrecognized team. The caller is expected to fall back
// to the Manual Review sentinel rather than fail the ticket.
var ErrBadAdvisorReply = errors.New("unusable disambiguation reply")

// Completer is the narrow slice of the completion capability the classifier
// needs. Implementations must honor temperature-zero determinism.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64) (string, error)
}

// Advisor resolves a single team from the top-K retrieval matches by asking
// the completion capability to pick one label. The model decides which team;
// confidence comes from retrieval agreement, not from the model.
type Advisor struct {
	completer Completer
	k         int
}

func NewAdvisor(completer Completer, k int) *Advisor {
	return &Advisor{completer: completer, k: k}
}

const advisorMaxTokens = 64

type advisorReply struct {
	Team string `json:"team"`
}

// Decide asks the completion capability to choose one team for the ticket
// given its nearest prototypes, and returns that team with a vote-agreement
// confidence: the fraction of the K retrieval slots naming the chosen team.
func (a *Advisor) Decide(ctx context.Context, title string, matches []Match) (models.Team, float64, error) {
	systemPrompt := a.buildSystemPrompt(matches)
	userPrompt := "Ticket title: " + title

	responseText, err := a.completer.Complete(ctx, systemPrompt, userPrompt, advisorMaxTokens)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrBadAdvisorReply, err)
	}

	team, err := parseAdvisorReply(responseText)
	if err != nil {
		return "", 0, err
	}

	votes := 0
	for _, m := range matches {
		if m.Team == team {
			votes++
		}
	}
	confidence := float64(votes) / float64(a.k)

	return team, confidence, nil
}

func (a *Advisor) buildSystemPrompt(matches []Match) string {
	var lines strings.Builder
	for i, m := range matches {
		lines.WriteString(fmt.Sprintf("%d. %s (similarity %.3f)\n", i+1, m.Team, m.Similarity))
	}

	var teamLines strings.Builder
	for _, team := range models.RoutableTeams {
		teamLines.WriteString(fmt.Sprintf("- %s: %s\n", team, models.TeamDescriptions[team]))
	}

	return fmt.Sprintf(`You route IT support tickets to exactly one team.

Available teams:
%s
The most similar resolved tickets were handled by:
%s
Pick the single best team for the ticket below.

Respond with JSON only (no markdown):
{"team": "Network Team"}`, teamLines.String(), lines.String())
}

func parseAdvisorReply(responseText string) (models.Team, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var reply advisorReply
	if err := json.Unmarshal([]byte(responseText), &reply); err != nil {
		return "", fmt.Errorf("%w: parsing %q: %v", ErrBadAdvisorReply, responseText, err)
	}

	team, err := models.ParseTeam(strings.TrimSpace(reply.Team))
	if err != nil || !team.Routable() {
		return "", fmt.Errorf("%w: %q is not a routable team", ErrBadAdvisorReply, reply.Team)
	}
	return team, nil
}
