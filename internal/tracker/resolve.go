package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/christopherklint97/stempel/internal/domain"
)

var ErrProjectNotFound = errors.New("project not found")

// ResolveProject finds query by id, then by exact name (case-insensitive),
// then by a unique name prefix.
func ResolveProject(projects []domain.Project, query string) (*domain.Project, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty project name: %w", ErrProjectNotFound)
	}
	for i := range projects {
		if projects[i].ID == q {
			return &projects[i], nil
		}
	}
	for i := range projects {
		if strings.EqualFold(projects[i].Name, q) {
			return &projects[i], nil
		}
	}

	lower := strings.ToLower(q)
	var matches []*domain.Project
	for i := range projects {
		if strings.HasPrefix(strings.ToLower(projects[i].Name), lower) {
			matches = append(matches, &projects[i])
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%q: %w", query, ErrProjectNotFound)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
	}
}
