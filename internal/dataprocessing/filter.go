package dataprocessing

import (
	"strings"

	"projectpulse/pkg/contracts/domain"
)

// Filter returns the projects matching every non-empty criterion, in their
// original order. Person and client match case-insensitive substrings; the
// status must equal the canonical status, ignoring case. The input is not
// modified.
func Filter(projects []domain.Project, f domain.ProjectFilter) []domain.Project {
	person := strings.ToLower(f.Person)
	client := strings.ToLower(f.Client)

	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if person != "" && !strings.Contains(strings.ToLower(p.Person), person) {
			continue
		}
		if client != "" && !strings.Contains(strings.ToLower(p.Client), client) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(p.Status, f.Status) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FindByID returns the project with the given id.
func FindByID(projects []domain.Project, id string) (domain.Project, bool) {
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}
