package store

import (
	"context"
	"errors"

	"resale-console/internal/models"
	"resale-console/internal/workflow"

	"gorm.io/gorm"
)

// FlattenReport summarizes a FlattenStored run.
type FlattenReport struct {
	Checked   int
	Rewritten []uint
	Corrupt   []uint
}

// FlattenStored rewrites every stored definition that is not in the flat
// serialized form, such as legacy trees. Definitions that cannot be decoded
// are reported and left untouched. With dryRun nothing is written.
func (s *Workflows) FlattenStored(ctx context.Context, dryRun bool) (FlattenReport, error) {
	var report FlattenReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list []models.Workflow
		if err := tx.Order("id ASC").Find(&list).Error; err != nil {
			return err
		}

		for _, w := range list {
			report.Checked++
			nodes, err := workflow.DecodeDefinition([]byte(w.Definition))
			if err != nil {
				s.logger.Warn("skipping corrupt definition", "id", w.ID, "error", err)
				report.Corrupt = append(report.Corrupt, w.ID)
				continue
			}
			flat, err := workflow.Serialize(nodes)
			if err != nil {
				return err
			}
			if flat == w.Definition {
				continue
			}

			report.Rewritten = append(report.Rewritten, w.ID)
			if dryRun {
				continue
			}
			if err := tx.Model(&models.Workflow{}).Where("id = ?", w.ID).Update("definition", flat).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, newWorkflowError("flatten", 0, err)
	}
	return report, nil
}

// CheckStored validates every stored definition and returns the problems
// keyed by workflow id.
func (s *Workflows) CheckStored(ctx context.Context) (map[uint]error, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	problems := map[uint]error{}
	for _, w := range list {
		nodes, err := workflow.DecodeDefinition([]byte(w.Definition))
		if err == nil {
			err = workflow.Validate(nodes)
		}
		if err != nil {
			problems[w.ID] = errors.Join(ErrInvalidDefinition, err)
		}
	}
	return problems, nil
}
