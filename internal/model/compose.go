package model

import "time"

// ComposeRepo pairs a repository reference with its base branch.
type ComposeRepo struct {
	RepoID     string `json:"repoId"`
	BaseBranch string `json:"baseBranch"`
}

// Compose is a named bundle of resource references.
type Compose struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Repos      []ComposeRepo `json:"repos"`
	SkillIDs   []string      `json:"skillIds"`
	AgentIDs   []string      `json:"agentIds"`
	CommandIDs []string      `json:"commandIds"`
	MCPIDs     []string      `json:"mcpIds"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// ComposeDetail is a read-only projection of a Compose where every reference
// is replaced by a snapshot of the live resource or a missing placeholder.
type ComposeDetail struct {
	Compose  Compose            `json:"compose"`
	Repos    []ResolvedRepo     `json:"repos"`
	Skills   []ResolvedResource `json:"skills"`
	Agents   []ResolvedResource `json:"agents"`
	Commands []ResolvedResource `json:"commands"`
	MCPs     []ResolvedResource `json:"mcps"`
}

// Resolve projects c against the resources in doc. It never fails: dangling
// references become placeholders with Missing set.
func Resolve(doc *Document, c *Compose) *ComposeDetail {
	index := doc.resourceIndex()

	lookup := func(id string, kind Kind) ResolvedResource {
		if r, ok := index[id]; ok && r.Type == kind {
			return ResolvedResource{Resource: cloneResource(r)}
		}
		return ResolvedResource{Resource: placeholder(id, kind), Missing: true}
	}
	resolveAll := func(ids []string, kind Kind) []ResolvedResource {
		out := make([]ResolvedResource, 0, len(ids))
		for _, id := range ids {
			out = append(out, lookup(id, kind))
		}
		return out
	}

	repos := make([]ResolvedRepo, 0, len(c.Repos))
	for _, cr := range c.Repos {
		rr := lookup(cr.RepoID, KindRepo)
		repos = append(repos, ResolvedRepo{Resource: rr.Resource, BaseBranch: cr.BaseBranch, Missing: rr.Missing})
	}

	return &ComposeDetail{
		Compose:  cloneCompose(c),
		Repos:    repos,
		Skills:   resolveAll(c.SkillIDs, KindSkill),
		Agents:   resolveAll(c.AgentIDs, KindAgent),
		Commands: resolveAll(c.CommandIDs, KindCommand),
		MCPs:     resolveAll(c.MCPIDs, KindMCP),
	}
}

// Live returns the non-missing resources of a resolved list.
func Live(list []ResolvedResource) []Resource {
	out := make([]Resource, 0, len(list))
	for _, r := range list {
		if !r.Missing {
			out = append(out, r.Resource)
		}
	}
	return out
}

// LiveRepos returns the non-missing repos of the detail, in compose order.
func (d *ComposeDetail) LiveRepos() []ResolvedRepo {
	out := make([]ResolvedRepo, 0, len(d.Repos))
	for _, r := range d.Repos {
		if !r.Missing {
			out = append(out, r)
		}
	}
	return out
}

// ReferenceValidation lists the dangling references of a compose per kind.
type ReferenceValidation struct {
	Valid           bool     `json:"valid"`
	MissingRepos    []string `json:"missingRepos"`
	MissingSkills   []string `json:"missingSkills"`
	MissingAgents   []string `json:"missingAgents"`
	MissingCommands []string `json:"missingCommands"`
	MissingMCPs     []string `json:"missingMcps"`
}

// ValidateReferences reports which references of c are dangling.
func ValidateReferences(doc *Document, c *Compose) *ReferenceValidation {
	d := Resolve(doc, c)

	missing := func(list []ResolvedResource) []string {
		ids := []string{}
		for _, r := range list {
			if r.Missing {
				ids = append(ids, r.ID)
			}
		}
		return ids
	}

	v := &ReferenceValidation{
		MissingRepos:    []string{},
		MissingSkills:   missing(d.Skills),
		MissingAgents:   missing(d.Agents),
		MissingCommands: missing(d.Commands),
		MissingMCPs:     missing(d.MCPs),
	}
	for _, r := range d.Repos {
		if r.Missing {
			v.MissingRepos = append(v.MissingRepos, r.ID)
		}
	}
	v.Valid = len(v.MissingRepos)+len(v.MissingSkills)+len(v.MissingAgents)+
		len(v.MissingCommands)+len(v.MissingMCPs) == 0
	return v
}

func cloneCompose(c *Compose) Compose {
	out := *c
	out.Repos = append([]ComposeRepo(nil), c.Repos...)
	out.SkillIDs = append([]string(nil), c.SkillIDs...)
	out.AgentIDs = append([]string(nil), c.AgentIDs...)
	out.CommandIDs = append([]string(nil), c.CommandIDs...)
	out.MCPIDs = append([]string(nil), c.MCPIDs...)
	return out
}

func cloneResource(r *Resource) Resource {
	out := *r
	out.Files = append([]SkillFile(nil), r.Files...)
	if r.Config != nil {
		out.Config = cloneMap(r.Config)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch tv := v.(type) {
		case map[string]any:
			out[k] = cloneMap(tv)
		case []any:
			out[k] = append([]any(nil), tv...)
		default:
			out[k] = v
		}
	}
	return out
}
