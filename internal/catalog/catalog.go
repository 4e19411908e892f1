// Package catalog loads the skill catalog used to seed a fresh database.
//
// The file format is YAML:
//
//	skills:
//	  - name: Python
//	    category: Programming
//	    description: General purpose language
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sakif/skill-sangam/internal/model"
)

//go:embed skills.yaml
var defaultCatalog []byte

type file struct {
	Skills []entry `yaml:"skills"`
}

type entry struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Default returns the catalog shipped with the binary.
func Default() ([]model.Skill, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

func LoadFile(path string) ([]model.Skill, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a catalog. Unknown keys and duplicate names
// (compared case-insensitively) are errors.
func Parse(r io.Reader) ([]model.Skill, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("catalog: decoding: %w", err)
	}

	seen := make(map[string]int, len(f.Skills))
	skills := make([]model.Skill, 0, len(f.Skills))
	for i, e := range f.Skills {
		s := model.Skill{
			Name:        strings.TrimSpace(e.Name),
			Category:    strings.TrimSpace(e.Category),
			Description: strings.TrimSpace(e.Description),
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: skill #%d: %w", i+1, err)
		}
		key := strings.ToLower(s.Name)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("catalog: skill #%d %q duplicates skill #%d", i+1, s.Name, prev)
		}
		seen[key] = i + 1
		skills = append(skills, s)
	}
	return skills, nil
}

// Ensurer creates a skill unless one with the same name exists.
type Ensurer interface {
	EnsureSkill(ctx context.Context, want model.Skill) (*model.Skill, bool, error)
}

// Seed makes sure every skill in the catalog exists and reports how many
// were created. Existing skills are left untouched.
func Seed(ctx context.Context, e Ensurer, skills []model.Skill) (int, error) {
	created := 0
	for _, s := range skills {
		_, isNew, err := e.EnsureSkill(ctx, s)
		if err != nil {
			return created, fmt.Errorf("catalog: seeding %q: %w", s.Name, err)
		}
		if isNew {
			created++
		}
	}
	return created, nil
}
