package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

// Example is one labeled past ticket used as a reference point for
// similarity-based routing.
type Example struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// exampleFile is the on-disk shape of one team's prototype set.
type exampleFile struct {
	Examples []Example `yaml:"examples"`
}

// Store keeps one YAML file of examples per team under a base directory.
// Reads happen on every corpus load; the feedback writer appends to the same
// files, so routing always sees the latest committed feedback.
type Store struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex // serializes appends; loads read whatever is committed
}

// NewStore creates a store rooted at dir. The directory is created if
// missing so a fresh deployment can start with empty prototype sets.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create prototype dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) path(team models.Team) string {
	slug := strings.ToLower(strings.ReplaceAll(string(team), " ", "_"))
	return filepath.Join(s.dir, slug+".yaml")
}

// Examples returns the prototype set for the given team. A missing file is
// an empty set, not an error; a malformed file is an error so a partial
// corpus never routes silently.
func (s *Store) Examples(team models.Team) ([]Example, error) {
	data, err := os.ReadFile(s.path(team))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prototype set for %s: %w", team, err)
	}

	var file exampleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prototype set for %s: %w", team, err)
	}
	return file.Examples, nil
}

// Append adds one example to the team's prototype set. Future corpus loads
// pick it up; there is no transactional link to whatever triggered the
// append.
func (s *Store) Append(team models.Team, example Example) error {
	if !team.Routable() {
		return fmt.Errorf("team %q has no prototype set", team)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	examples, err := s.Examples(team)
	if err != nil {
		return err
	}
	examples = append(examples, example)

	data, err := yaml.Marshal(exampleFile{Examples: examples})
	if err != nil {
		return fmt.Errorf("failed to marshal prototype set for %s: %w", team, err)
	}
	if err := os.WriteFile(s.path(team), data, 0o644); err != nil {
		return fmt.Errorf("failed to write prototype set for %s: %w", team, err)
	}

	s.logger.Info("Prototype example appended",
		zap.String("team", string(team)),
		zap.Int("set_size", len(examples)))
	return nil
}
