package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsforge/internal/model"
)

// CreateCompose validates and stores a new compose. References are stored
// as given; dangling ones surface as missing when the compose is read.
func (e *Engine) CreateCompose(in ComposeInput) (*model.Compose, error) {
	name, err := validateComposeName(in.Name)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	c := model.Compose{ID: e.newID(), Name: name, CreatedAt: now, UpdatedAt: now}
	setComposeRefs(&c, in)

	err = e.store.Update(func(doc *model.Document) error {
		if existing := doc.ComposeByName(name); existing != nil {
			return fmt.Errorf("%w: compose %q", ErrDuplicate, name)
		}
		doc.Composes = append(doc.Composes, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("compose created", zap.String("id", c.ID), zap.String("name", c.Name))
	return &c, nil
}

// UpdateCompose replaces the name and references of an existing compose.
func (e *Engine) UpdateCompose(id string, in ComposeInput) (*model.Compose, error) {
	name, err := validateComposeName(in.Name)
	if err != nil {
		return nil, err
	}

	var updated model.Compose
	err = e.store.Update(func(doc *model.Document) error {
		idx := doc.FindCompose(id)
		if idx < 0 {
			return fmt.Errorf("%w: compose %q", ErrNotFound, id)
		}
		if other := doc.ComposeByName(name); other != nil && other.ID != id {
			return fmt.Errorf("%w: compose %q", ErrDuplicate, name)
		}
		c := &doc.Composes[idx]
		c.Name = name
		setComposeRefs(c, in)
		c.UpdatedAt = e.clock.Now()
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCompose removes a compose. Referenced resources are untouched.
func (e *Engine) DeleteCompose(id string) error {
	return e.store.Update(func(doc *model.Document) error {
		idx := doc.FindCompose(id)
		if idx < 0 {
			return fmt.Errorf("%w: compose %q", ErrNotFound, id)
		}
		doc.Composes = append(doc.Composes[:idx], doc.Composes[idx+1:]...)
		return nil
	})
}

// GetCompose returns the compose with the given id.
func (e *Engine) GetCompose(id string) (*model.Compose, error) {
	doc := e.load()
	idx := doc.FindCompose(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: compose %q", ErrNotFound, id)
	}
	c := doc.Composes[idx]
	return &c, nil
}

// FindCompose returns the compose whose id or name equals ref.
func (e *Engine) FindCompose(ref string) (*model.Compose, error) {
	doc := e.load()
	if idx := doc.FindCompose(ref); idx >= 0 {
		c := doc.Composes[idx]
		return &c, nil
	}
	if c := doc.ComposeByName(ref); c != nil {
		out := *c
		return &out, nil
	}
	return nil, fmt.Errorf("%w: compose %q", ErrNotFound, ref)
}

// ListComposes returns every compose in insertion order.
func (e *Engine) ListComposes() []model.Compose {
	doc := e.load()
	out := make([]model.Compose, len(doc.Composes))
	copy(out, doc.Composes)
	return out
}

// GetComposeDetail resolves every reference of a compose. Dangling
// references become placeholders flagged Missing.
func (e *Engine) GetComposeDetail(id string) (*model.ComposeDetail, error) {
	doc := e.load()
	idx := doc.FindCompose(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: compose %q", ErrNotFound, id)
	}
	return model.Resolve(doc, &doc.Composes[idx]), nil
}

// ValidateReferences reports the dangling references of a compose.
func (e *Engine) ValidateReferences(id string) (*model.ReferenceValidation, error) {
	doc := e.load()
	idx := doc.FindCompose(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: compose %q", ErrNotFound, id)
	}
	return model.ValidateReferences(doc, &doc.Composes[idx]), nil
}

func setComposeRefs(c *model.Compose, in ComposeInput) {
	c.Repos = append([]model.ComposeRepo{}, in.Repos...)
	c.SkillIDs = append([]string{}, in.SkillIDs...)
	c.AgentIDs = append([]string{}, in.AgentIDs...)
	c.CommandIDs = append([]string{}, in.CommandIDs...)
	c.MCPIDs = append([]string{}, in.MCPIDs...)
}
