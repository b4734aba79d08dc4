package services

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

// Curriculum seed file shape. Node ids default to slugified names.
type seedTopic struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type seedUnit struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Weight int         `yaml:"weight"`
	Topics []seedTopic `yaml:"topics"`
}

type seedModule struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Index int        `yaml:"index"`
	Units []seedUnit `yaml:"units"`
}

type seedSubject struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Modules []seedModule `yaml:"modules"`
}

type seedFile struct {
	Subjects []seedSubject `yaml:"subjects"`
}

type CurriculumSeeder struct {
	db     *gorm.DB
	log    *logger.Logger
	kbRepo repos.KnowledgeBaseRepo
}

func NewCurriculumSeeder(db *gorm.DB, log *logger.Logger, kbRepo repos.KnowledgeBaseRepo) *CurriculumSeeder {
	return &CurriculumSeeder{
		db:     db,
		log:    log.With("service", "CurriculumSeeder"),
		kbRepo: kbRepo,
	}
}

// SeedFromFile upserts the taxonomy described by a YAML seed so a fresh
// deployment has a curriculum to analyze against. Safe to run on every boot.
func (cs *CurriculumSeeder) SeedFromFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, subject := range seed.Subjects {
		subjectID := subject.ID
		if subjectID == "" {
			subjectID = Slugify(subject.Name)
		}
		if err := cs.kbRepo.UpsertSubject(ctx, nil, &types.Subject{ID: subjectID, Name: subject.Name}); err != nil {
			return fmt.Errorf("seed subject %q: %w", subjectID, err)
		}
		for _, module := range subject.Modules {
			moduleID := module.ID
			if moduleID == "" {
				moduleID = Slugify(module.Name)
			}
			if err := cs.kbRepo.UpsertModule(ctx, nil, &types.KBModule{
				ID:        moduleID,
				SubjectID: subjectID,
				Name:      module.Name,
				Index:     module.Index,
			}); err != nil {
				return fmt.Errorf("seed module %q: %w", moduleID, err)
			}
			for _, unit := range module.Units {
				unitID := unit.ID
				if unitID == "" {
					unitID = Slugify(unit.Name)
				}
				weight := unit.Weight
				if weight == 0 {
					weight = defaultUnitWeight
				}
				if err := cs.kbRepo.UpsertUnit(ctx, nil, &types.KBUnit{
					ID:        unitID,
					ModuleID:  moduleID,
					SubjectID: subjectID,
					Name:      unit.Name,
					Weight:    weight,
				}); err != nil {
					return fmt.Errorf("seed unit %q: %w", unitID, err)
				}
				for _, topic := range unit.Topics {
					topicID := topic.ID
					if topicID == "" {
						topicID = Slugify(topic.Name)
					}
					if err := cs.kbRepo.UpsertTopic(ctx, nil, &types.KBTopic{
						ID:          topicID,
						UnitID:      unitID,
						SubjectID:   subjectID,
						Name:        topic.Name,
						Description: topic.Description,
					}); err != nil {
						return fmt.Errorf("seed topic %q: %w", topicID, err)
					}
				}
			}
		}
	}
	cs.log.Info("Curriculum seed applied", "subjects", len(seed.Subjects))
	return nil
}
