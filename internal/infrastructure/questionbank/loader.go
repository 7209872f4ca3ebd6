package questionbank

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// Load reads the interview question bank from a YAML seed file. The file
// is the source of truth for question text; the database copy exists so
// stored answers keep their wording even if the file changes later.
func Load(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]domain.Question, error) {
	var doc struct {
		Questions []domain.Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	seen := make(map[string]struct{}, len(doc.Questions))
	for i := range doc.Questions {
		q := &doc.Questions[i]
		q.ID = strings.TrimSpace(q.ID)
		q.Text = strings.TrimSpace(q.Text)
		if q.ID == "" {
			return nil, fmt.Errorf("question %d has no id", i)
		}
		if q.Text == "" {
			return nil, fmt.Errorf("question %q has no text", q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		if q.Position == 0 {
			q.Position = i + 1
		}
	}
	return doc.Questions, nil
}
