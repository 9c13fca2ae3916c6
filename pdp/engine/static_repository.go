package engine

import (
	"context"
	"sort"

	"github.com/dev-mohitbeniwal/echo-portal/model"
)

// StaticRepository serves a fixed policy set, e.g. one loaded from a YAML
// file for an offline dry run.
type StaticRepository struct {
	byResource map[string][]*model.Policy
}

func NewStaticRepository(policies []*model.Policy) *StaticRepository {
	r := &StaticRepository{byResource: make(map[string][]*model.Policy)}
	for _, p := range policies {
		r.byResource[p.Resource] = append(r.byResource[p.Resource], p)
	}
	for _, list := range r.byResource {
		sort.Slice(list, func(i, j int) bool { return list[i].PolicyID < list[j].PolicyID })
	}
	return r
}

func (r *StaticRepository) FindByResource(_ context.Context, resource string) ([]*model.Policy, error) {
	list := r.byResource[resource]
	out := make([]*model.Policy, len(list))
	copy(out, list)
	return out, nil
}
