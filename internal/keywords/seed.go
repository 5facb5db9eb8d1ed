package keywords

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout of the keyword seed file
type SeedFile struct {
	Keywords []SeedKeyword `yaml:"keywords"`
}

// SeedKeyword is one keyword entry of the seed file
type SeedKeyword struct {
	Query   string              `yaml:"query"`
	Enabled *bool               `yaml:"enabled"`
	Sources []models.SourceType `yaml:"sources"`
}

// LoadSeedFile reads and parses a keyword seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	return &seed, nil
}

// Seed creates the keywords listed in seed that do not exist yet and returns
// how many were created. Existing keywords are left untouched.
func (s *Service) Seed(ctx context.Context, seed *SeedFile) (int, error) {
	created := 0
	for _, entry := range seed.Keywords {
		kw, err := s.Create(ctx, entry.Query, entry.Sources)
		if errors.Is(err, models.ErrDuplicate) {
			logrus.Debugf("Seed keyword %q already exists", entry.Query)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed keyword %q: %w", entry.Query, err)
		}

		if entry.Enabled != nil && !*entry.Enabled {
			disabled := false
			if _, err := s.store.UpdateKeyword(ctx, kw.ID, store.KeywordUpdate{Enabled: &disabled}); err != nil {
				return created, fmt.Errorf("seed keyword %q: %w", entry.Query, err)
			}
		}
		created++
	}

	logrus.Infof("Seeded %d of %d keywords", created, len(seed.Keywords))
	return created, nil
}
