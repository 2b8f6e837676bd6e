package quiz

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Priority of a recommended resource. High outranks Medium.
type Priority string

const (
	High   Priority = "ALTA"
	Medium Priority = "MEDIA"
)

func (p Priority) rank() int {
	if p == High {
		return 0
	}
	return 1
}

// Resource is a remedial learning resource linked to a question code.
type Resource struct {
	Code        string `json:"codigo_recurso"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	URL         string `json:"url_completa"`
}

// Recommendation is a resource tagged with the area of the question that
// first triggered it and the highest priority seen for it.
type Recommendation struct {
	Resource
	Area     string   `json:"area_dig_comp"`
	Priority Priority `json:"prioridad"`
}

// ResourceLookup fetches the resources linked to a question code.
type ResourceLookup interface {
	ResourcesForQuestion(ctx context.Context, questionCode string) ([]Resource, error)
}

// Recommender maps weak outcomes to remedial resources.
type Recommender struct {
	Lookup ResourceLookup
	// Concurrency bounds in-flight lookups; zero or less means unbounded.
	Concurrency int
	// OnLookupError is called for every failed lookup. The failing
	// question contributes no resources either way.
	OnLookupError func(questionCode string, err error)
}

type trigger struct {
	code     string
	area     string
	priority Priority
}

// NeedsReinforcement reports whether o triggers a resource lookup.
func NeedsReinforcement(o Outcome) bool {
	switch o.State {
	case DontKnow, Incorrect, Partial:
		return true
	}
	return o.Score < 1
}

// Recommend looks up resources for every weak outcome concurrently, then
// merges them by resource code and sorts them by priority and area order.
func (r *Recommender) Recommend(ctx context.Context, outcomes []Outcome, bank []Question) []Recommendation {
	triggers := collectTriggers(outcomes, bank)
	if len(triggers) == 0 || r.Lookup == nil {
		return []Recommendation{}
	}

	found := make([][]Resource, len(triggers))
	g, gctx := errgroup.WithContext(ctx)
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}
	for i, t := range triggers {
		g.Go(func() error {
			res, err := r.Lookup.ResourcesForQuestion(gctx, t.code)
			if err != nil {
				if r.OnLookupError != nil {
					r.OnLookupError(t.code, err)
				}
				return nil
			}
			found[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return merge(triggers, found)
}

func collectTriggers(outcomes []Outcome, bank []Question) []trigger {
	byID := make(map[string]Question, len(bank))
	byCode := make(map[string]Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
		if _, dup := byCode[q.Code]; !dup {
			byCode[q.Code] = q
		}
	}

	var out []trigger
	for _, o := range outcomes {
		if !NeedsReinforcement(o) {
			continue
		}
		code := o.Code
		if code == "" {
			code = byID[o.QuestionID].Code
		}
		if code == "" {
			continue
		}
		p := Medium
		if o.State == DontKnow || o.Score == 0 {
			p = High
		}
		out = append(out, trigger{code: code, area: byCode[code].Area, priority: p})
	}
	return out
}

func merge(triggers []trigger, found [][]Resource) []Recommendation {
	index := make(map[string]int)
	out := []Recommendation{}
	for i, t := range triggers {
		for _, res := range found[i] {
			if at, ok := index[res.Code]; ok {
				if t.priority.rank() < out[at].Priority.rank() {
					out[at].Priority = t.priority
				}
				continue
			}
			index[res.Code] = len(out)
			out = append(out, Recommendation{Resource: res, Area: t.area, Priority: t.priority})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if pi, pj := out[i].Priority.rank(), out[j].Priority.rank(); pi != pj {
			return pi < pj
		}
		return areaRank(out[i].Area) < areaRank(out[j].Area)
	})
	return out
}

// areaRank orders unmatched areas after the five known ones.
func areaRank(label string) int {
	if label == "" {
		return AreaCount
	}
	if i := AreaIndex(label); i != NoArea {
		return i
	}
	return AreaCount
}
