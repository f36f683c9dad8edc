package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"resale-console/internal/models"
	"resale-console/internal/workflow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultWorkflowName = "新流程"
	emptyDefinition     = "[]"
)

// WorkflowUpdate is a partial update; nil fields are left untouched.
type WorkflowUpdate struct {
	Name        *string
	Description *string
	Definition  *string
	IsDefault   *bool
	Enabled     *bool
}

// Workflows stores workflow aggregates. At most one workflow is default:
// every write that sets isDefault clears it on all other rows in the same
// transaction.
type Workflows struct {
	db         *gorm.DB
	editorOpts []workflow.EditorOption
	logger     *slog.Logger
}

func NewWorkflows(db *gorm.DB, opts ...workflow.EditorOption) *Workflows {
	return &Workflows{
		db:         db,
		editorOpts: opts,
		logger:     slog.With("module", "workflow-store"),
	}
}

func (s *Workflows) List(ctx context.Context) ([]models.Workflow, error) {
	var list []models.Workflow
	if err := s.db.WithContext(ctx).Order("is_default DESC, id ASC").Find(&list).Error; err != nil {
		return nil, newWorkflowError("list", 0, err)
	}
	return list, nil
}

func (s *Workflows) Get(ctx context.Context, id uint) (*models.Workflow, error) {
	w, err := s.get(s.db.WithContext(ctx), id, false)
	if err != nil {
		return nil, newWorkflowError("get", id, err)
	}
	return w, nil
}

// Default returns the workflow currently flagged default.
func (s *Workflows) Default(ctx context.Context) (*models.Workflow, error) {
	var w models.Workflow
	err := s.db.WithContext(ctx).Where("is_default = ?", true).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newWorkflowError("get default", 0, ErrNoDefaultWorkflow)
	}
	if err != nil {
		return nil, newWorkflowError("get default", 0, err)
	}
	return &w, nil
}

// Create stores w. An empty name becomes DefaultWorkflowName and an empty
// definition becomes an empty node list. Definitions are stored flat.
func (s *Workflows) Create(ctx context.Context, w *models.Workflow) error {
	if w.Name == "" {
		w.Name = DefaultWorkflowName
	}
	def, err := NormalizeDefinition(w.Definition)
	if err != nil {
		return newWorkflowError("create", 0, err)
	}
	w.Definition = def

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(w).Error; err != nil {
			return err
		}
		if w.IsDefault {
			return clearOtherDefaults(tx, w.ID)
		}
		return nil
	})
	if err != nil {
		return newWorkflowError("create", 0, err)
	}

	s.logger.Info("workflow created", "id", w.ID, "name", w.Name, "default", w.IsDefault)
	return nil
}

func (s *Workflows) Update(ctx context.Context, id uint, u WorkflowUpdate) (*models.Workflow, error) {
	updates := map[string]any{}
	if u.Name != nil {
		name := *u.Name
		if name == "" {
			name = DefaultWorkflowName
		}
		updates["name"] = name
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Definition != nil {
		def, err := NormalizeDefinition(*u.Definition)
		if err != nil {
			return nil, newWorkflowError("update", id, err)
		}
		updates["definition"] = def
	}
	if u.IsDefault != nil {
		updates["is_default"] = *u.IsDefault
	}
	if u.Enabled != nil {
		updates["enabled"] = *u.Enabled
	}

	var out *models.Workflow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.get(tx, id, true)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(w).Updates(updates).Error; err != nil {
				return err
			}
		}
		if u.IsDefault != nil && *u.IsDefault {
			if err := clearOtherDefaults(tx, id); err != nil {
				return err
			}
		}
		out, err = s.get(tx, id, false)
		return err
	})
	if err != nil {
		return nil, newWorkflowError("update", id, err)
	}
	return out, nil
}

func (s *Workflows) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Workflow{}, id)
	if res.Error != nil {
		return newWorkflowError("delete", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return newWorkflowError("delete", id, ErrWorkflowNotFound)
	}
	s.logger.Info("workflow deleted", "id", id)
	return nil
}

// SetDefault flags id as the default workflow and unflags every other one.
func (s *Workflows) SetDefault(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.get(tx, id, true); err != nil {
			return err
		}
		if err := tx.Model(&models.Workflow{}).Where("id = ?", id).Update("is_default", true).Error; err != nil {
			return err
		}
		return clearOtherDefaults(tx, id)
	})
	if err != nil {
		return newWorkflowError("set default", id, err)
	}
	s.logger.Info("default workflow changed", "id", id)
	return nil
}

// Nodes returns the stored definition as a flat sequence. A corrupt
// definition reads as empty.
func (s *Workflows) Nodes(ctx context.Context, id uint) ([]workflow.Node, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.ParseDefinition(w.Definition), nil
}

// EditNodes loads the definition of id into an editor, runs fn, and saves the
// result if fn succeeds and the edited sequence validates. A stored definition
// that does not decode is left untouched and reported as ErrInvalidDefinition.
func (s *Workflows) EditNodes(ctx context.Context, id uint, fn func(*workflow.Editor) error) ([]workflow.Node, error) {
	var nodes []workflow.Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.get(tx, id, true)
		if err != nil {
			return err
		}

		// edits are never applied over a definition that cannot be read back
		current, err := workflow.DecodeDefinition([]byte(w.Definition))
		if err != nil {
			return fmt.Errorf("%w: stored definition: %w", ErrInvalidDefinition, err)
		}
		ed := workflow.NewEditor(current, s.editorOpts...)
		if err := fn(ed); err != nil {
			return err
		}

		nodes = ed.Nodes()
		if err := workflow.Validate(nodes); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
		}
		def, err := workflow.Serialize(nodes)
		if err != nil {
			return err
		}
		return tx.Model(w).Update("definition", def).Error
	})
	if err != nil {
		return nil, newWorkflowError("edit nodes", id, err)
	}
	return nodes, nil
}

// NormalizeDefinition checks a definition submitted for storage and returns
// its flat serialized form. Empty input is an empty list.
func NormalizeDefinition(raw string) (string, error) {
	nodes, err := workflow.DecodeDefinition([]byte(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if err := workflow.Validate(nodes); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if len(nodes) == 0 {
		return emptyDefinition, nil
	}
	return workflow.Serialize(nodes)
}

func (s *Workflows) get(tx *gorm.DB, id uint, lock bool) (*models.Workflow, error) {
	q := tx
	if lock && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var w models.Workflow
	err := q.First(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkflowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func clearOtherDefaults(tx *gorm.DB, keep uint) error {
	return tx.Model(&models.Workflow{}).
		Where("is_default = ? AND id <> ?", true, keep).
		Update("is_default", false).Error
}
