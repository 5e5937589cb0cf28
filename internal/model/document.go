package model

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 1

// Document is the single persisted unit of metadata.
type Document struct {
	Version   int        `json:"version"`
	Resources []Resource `json:"resources"`
	Composes  []Compose  `json:"composes"`
}

// NewDocument returns the default, empty document.
func NewDocument() *Document {
	return &Document{
		Version:   CurrentVersion,
		Resources: []Resource{},
		Composes:  []Compose{},
	}
}

// Normalize replaces nil slices so the document always serializes as arrays.
func (d *Document) Normalize() {
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
	if d.Resources == nil {
		d.Resources = []Resource{}
	}
	if d.Composes == nil {
		d.Composes = []Compose{}
	}
	// An empty MCP config is dropped by omitempty on save.
	for i := range d.Resources {
		if d.Resources[i].Type == KindMCP && d.Resources[i].Config == nil {
			d.Resources[i].Config = map[string]any{}
		}
	}
}

func (d *Document) resourceIndex() map[string]*Resource {
	index := make(map[string]*Resource, len(d.Resources))
	for i := range d.Resources {
		index[d.Resources[i].ID] = &d.Resources[i]
	}
	return index
}

// FindResource returns the index of the resource with the given id, or -1.
func (d *Document) FindResource(id string) int {
	for i := range d.Resources {
		if d.Resources[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCompose returns the index of the compose with the given id, or -1.
func (d *Document) FindCompose(id string) int {
	for i := range d.Composes {
		if d.Composes[i].ID == id {
			return i
		}
	}
	return -1
}

// ComposeByName returns the compose with the given name, or nil.
func (d *Document) ComposeByName(name string) *Compose {
	for i := range d.Composes {
		if d.Composes[i].Name == name {
			return &d.Composes[i]
		}
	}
	return nil
}

// ResourcesOf returns copies of every resource of kind k, in document order.
// An empty kind returns all resources.
func (d *Document) ResourcesOf(k Kind) []Resource {
	out := []Resource{}
	for i := range d.Resources {
		if k == "" || d.Resources[i].Type == k {
			out = append(out, cloneResource(&d.Resources[i]))
		}
	}
	return out
}

// RemoveResources deletes every resource whose id is in ids.
// Composes are left untouched: their references become missing.
func (d *Document) RemoveResources(ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := d.Resources[:0]
	removed := 0
	for _, r := range d.Resources {
		if drop[r.ID] {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	d.Resources = kept
	return removed
}
