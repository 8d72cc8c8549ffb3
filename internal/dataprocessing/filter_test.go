package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"projectpulse/pkg/contracts/domain"
)

func filterFixture() []domain.Project {
	return []domain.Project{
		{ID: "0", Person: "Ana García", Client: "ACME Retail", Status: domain.StatusInProgress},
		{ID: "1", Person: "Luis Pérez", Client: "Beta", Status: domain.StatusPending},
		{ID: "2", Person: "", Client: "acme logistics", Status: domain.StatusInProgress},
		{ID: "3", Person: "ana maría", Client: "", Status: "Cancelado"},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  domain.ProjectFilter
		wantIDs []string
	}{
		{name: "no criteria", filter: domain.ProjectFilter{}, wantIDs: []string{"0", "1", "2", "3"}},
		{name: "person case insensitive", filter: domain.ProjectFilter{Person: "ANA"}, wantIDs: []string{"0", "3"}},
		{name: "client substring", filter: domain.ProjectFilter{Client: "acme"}, wantIDs: []string{"0", "2"}},
		{name: "status exact", filter: domain.ProjectFilter{Status: domain.StatusInProgress}, wantIDs: []string{"0", "2"}},
		{name: "status ignores case", filter: domain.ProjectFilter{Status: "en curso"}, wantIDs: []string{"0", "2"}},
		{name: "status is not a substring match", filter: domain.ProjectFilter{Status: "curso"}, wantIDs: []string{}},
		{name: "combined", filter: domain.ProjectFilter{Person: "ana", Status: domain.StatusInProgress}, wantIDs: []string{"0"}},
		{name: "empty person never matches a person filter", filter: domain.ProjectFilter{Person: "x"}, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := filterFixture()
			got := Filter(input, tt.filter)

			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, filterFixture(), input, "input must not be modified")
		})
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := Filter(nil, domain.ProjectFilter{Person: "ana"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindByID(t *testing.T) {
	p, ok := FindByID(filterFixture(), "2")
	assert.True(t, ok)
	assert.Equal(t, "acme logistics", p.Client)

	_, ok = FindByID(filterFixture(), "99")
	assert.False(t, ok)
}
