package discovery

import (
	"sort"
	"strings"

	"regharvest/pkg/traffic"
)

// pathKeywords mark URLs that look like search/listing/data-table
// actions on the registry.
var pathKeywords = []string{"buscar", "publico", "datatable", "list", "centro"}

// paginationHints mark request bodies that carry offset/length/draw
// parameters, in both form-encoded and JSON spellings.
var paginationHints = []string{
	"draw=", "start=", "length=",
	`"draw"`, `"start"`, `"length"`,
}

// scoreRule is one row of the scoring table: a predicate and the
// weight it contributes when it holds.
type scoreRule struct {
	name   string
	weight int
	match  func(*traffic.Request) bool
}

// Scorer ranks captured requests by how much they look like the real
// paginated listing endpoint.
type Scorer struct {
	rules []scoreRule
}

// NewScorer builds the scoring table for the given target host.
func NewScorer(targetHost string) *Scorer {
	host := strings.ToLower(targetHost)
	return &Scorer{rules: []scoreRule{
		{
			name:   "target_host",
			weight: 3,
			match: func(r *traffic.Request) bool {
				return host != "" && strings.Contains(strings.ToLower(r.URL), host)
			},
		},
		{
			name:   "listing_keyword",
			weight: 2,
			match: func(r *traffic.Request) bool {
				u := strings.ToLower(r.URL)
				for _, k := range pathKeywords {
					if strings.Contains(u, k) {
						return true
					}
				}
				return false
			},
		},
		{
			name:   "post_method",
			weight: 1,
			match: func(r *traffic.Request) bool {
				return strings.EqualFold(r.Method, "POST")
			},
		},
		{
			name:   "pagination_body",
			weight: 3,
			match: func(r *traffic.Request) bool {
				for _, k := range paginationHints {
					if strings.Contains(r.Body, k) {
						return true
					}
				}
				return false
			},
		},
	}}
}

// Score sums the weights of every matching rule.
func (s *Scorer) Score(r *traffic.Request) int {
	total := 0
	for _, rule := range s.rules {
		if rule.match(r) {
			total += rule.weight
		}
	}
	return total
}

// Rank orders candidates by descending score. The sort is stable, so
// ties keep their original observation order and probing stays
// deterministic.
func (s *Scorer) Rank(candidates []traffic.Request) []traffic.Request {
	ranked := make([]traffic.Request, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.Score(&ranked[i]) > s.Score(&ranked[j])
	})
	return ranked
}
