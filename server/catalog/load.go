package catalog

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"questline/shared/game/types"
)

const (
	BossesFile = "bosses.yaml"
	SkillsFile = "skills.yaml"
)

type bossesDoc struct {
	Bosses []types.Boss `yaml:"bosses"`
}

type skillsDoc struct {
	Trees []types.SkillTree `yaml:"trees"`
}

// LoadDir reads bosses.yaml and skills.yaml from dir. A missing file falls
// back to the built-in definitions for that half of the catalog.
func LoadDir(dir string) (*Catalog, error) {
	bosses := defaultBosses
	trees := defaultTrees

	b, err := os.ReadFile(filepath.Join(dir, BossesFile))
	switch {
	case err == nil:
		var doc bossesDoc
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", BossesFile, err)
		}
		bosses = doc.Bosses
	case errors.Is(err, os.ErrNotExist):
		log.Printf("CATALOG: %s not found in %s, using built-in bosses", BossesFile, dir)
	default:
		return nil, fmt.Errorf("read %s: %w", BossesFile, err)
	}

	b, err = os.ReadFile(filepath.Join(dir, SkillsFile))
	switch {
	case err == nil:
		var doc skillsDoc
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", SkillsFile, err)
		}
		trees = doc.Trees
	case errors.Is(err, os.ErrNotExist):
		log.Printf("CATALOG: %s not found in %s, using built-in skill trees", SkillsFile, dir)
	default:
		return nil, fmt.Errorf("read %s: %w", SkillsFile, err)
	}

	return New(bosses, trees)
}
