package domain

import "time"

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Company   Company   `json:"company"`
	Color     string    `json:"color,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectFilter narrows a project listing. A zero Company matches all companies.
type ProjectFilter struct {
	Company         Company
	IncludeArchived bool
}

// ProjectPatch holds the mutable project fields; nil fields are left unchanged.
type ProjectPatch struct {
	Name     *string `json:"name,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}

// Apply returns a copy of p with the patch applied.
func (pp ProjectPatch) Apply(p Project) Project {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Archived != nil {
		p.Archived = *pp.Archived
	}
	return p
}
