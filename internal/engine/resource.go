package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsforge/internal/model"
)

// load returns the current document. A failure to re-persist a recovered
// document is logged; the document itself is always usable.
func (e *Engine) load() *model.Document {
	doc, err := e.store.Load()
	if err != nil {
		e.logger.Warn("failed to persist metadata document", zap.Error(err))
	}
	if doc == nil {
		doc = model.NewDocument()
	}
	return doc
}

// GetResource returns the resource with the given id.
func (e *Engine) GetResource(id string) (*model.Resource, error) {
	doc := e.load()
	idx := doc.FindResource(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: resource %q", ErrNotFound, id)
	}
	r := doc.ResourcesOf("")[idx]
	return &r, nil
}

// ListResources returns every resource of kind, or all resources when kind
// is empty, in insertion order.
func (e *Engine) ListResources(kind model.Kind) []model.Resource {
	return e.load().ResourcesOf(kind)
}

// RemoveResource deletes a resource. Composes keep their references, which
// resolve as missing from then on.
func (e *Engine) RemoveResource(id string) error {
	return e.store.Update(func(doc *model.Document) error {
		if doc.RemoveResources(id) == 0 {
			return fmt.Errorf("%w: resource %q", ErrNotFound, id)
		}
		return nil
	})
}

// CreateSkill validates and stores a new skill.
func (e *Engine) CreateSkill(in SkillInput) (*model.Resource, error) {
	name, files, err := validateSkillInput(in)
	if err != nil {
		return nil, err
	}
	r := e.newResource(model.KindSkill, name)
	r.SkillMD = in.SkillMD
	r.Files = files
	return e.insert(r)
}

// UpdateSkill replaces the content of an existing skill.
func (e *Engine) UpdateSkill(id string, in SkillInput) (*model.Resource, error) {
	name, files, err := validateSkillInput(in)
	if err != nil {
		return nil, err
	}
	return e.replace(id, model.KindSkill, func(r *model.Resource) {
		r.Name = name
		r.SkillMD = in.SkillMD
		r.Files = files
	})
}

// CreateAgent validates and stores a new agent.
func (e *Engine) CreateAgent(in DocumentInput) (*model.Resource, error) {
	return e.createDocument(model.KindAgent, in)
}

// UpdateAgent replaces the content of an existing agent.
func (e *Engine) UpdateAgent(id string, in DocumentInput) (*model.Resource, error) {
	return e.updateDocument(id, model.KindAgent, in)
}

// CreateCommand validates and stores a new command.
func (e *Engine) CreateCommand(in DocumentInput) (*model.Resource, error) {
	return e.createDocument(model.KindCommand, in)
}

// UpdateCommand replaces the content of an existing command.
func (e *Engine) UpdateCommand(id string, in DocumentInput) (*model.Resource, error) {
	return e.updateDocument(id, model.KindCommand, in)
}

// CreateMCP validates and stores a new MCP config.
func (e *Engine) CreateMCP(in MCPInput) (*model.Resource, error) {
	name, err := validateMCPInput(in)
	if err != nil {
		return nil, err
	}
	r := e.newResource(model.KindMCP, name)
	r.Config = in.Config
	return e.insert(r)
}

// UpdateMCP replaces the config of an existing MCP config.
func (e *Engine) UpdateMCP(id string, in MCPInput) (*model.Resource, error) {
	name, err := validateMCPInput(in)
	if err != nil {
		return nil, err
	}
	return e.replace(id, model.KindMCP, func(r *model.Resource) {
		r.Name = name
		r.Config = in.Config
	})
}

func (e *Engine) createDocument(kind model.Kind, in DocumentInput) (*model.Resource, error) {
	name, err := validateDocumentInput(kind, in)
	if err != nil {
		return nil, err
	}
	r := e.newResource(kind, name)
	r.Content = in.Content
	return e.insert(r)
}

func (e *Engine) updateDocument(id string, kind model.Kind, in DocumentInput) (*model.Resource, error) {
	name, err := validateDocumentInput(kind, in)
	if err != nil {
		return nil, err
	}
	return e.replace(id, kind, func(r *model.Resource) {
		r.Name = name
		r.Content = in.Content
	})
}

func (e *Engine) newResource(kind model.Kind, name string) model.Resource {
	now := e.clock.Now()
	return model.Resource{
		ID:        e.newID(),
		Type:      kind,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *Engine) insert(r model.Resource) (*model.Resource, error) {
	err := e.store.Update(func(doc *model.Document) error {
		doc.Resources = append(doc.Resources, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", r.Type, err)
	}
	e.logger.Info("resource created", zap.String("kind", string(r.Type)), zap.String("id", r.ID), zap.String("name", r.Name))
	return &r, nil
}

// replace applies mutate to the resource id of kind and bumps UpdatedAt.
func (e *Engine) replace(id string, kind model.Kind, mutate func(r *model.Resource)) (*model.Resource, error) {
	var updated model.Resource
	err := e.store.Update(func(doc *model.Document) error {
		idx := doc.FindResource(id)
		if idx < 0 || !doc.Resources[idx].Is(kind) {
			return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
		}
		r := &doc.Resources[idx]
		mutate(r)
		r.UpdatedAt = e.clock.Now()
		updated = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
