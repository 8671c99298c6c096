package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Params configures a search.
type Params struct {
	Query string
	// OwnerID restricts hits to one owner. Required unless AllOwners is set.
	OwnerID   string
	AllOwners bool
	Types     []DocType
	Limit     int
	Offset    int
}

// Result is one page of hits.
type Result struct {
	Query string `json:"query"`
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Hit is a single matching document.
type Hit struct {
	ID    string  `json:"id"`
	Type  DocType `json:"type"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Search runs a full-text query. An empty query or a scope that names no
// owner returns no hits.
func (s *SearchIndex) Search(ctx context.Context, p Params) (*Result, error) {
	p.Query = strings.TrimSpace(p.Query)
	result := &Result{Query: p.Query, Hits: []Hit{}}
	if p.Query == "" || (!p.AllOwners && p.OwnerID == "") {
		return result, nil
	}

	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	p.Limit = min(p.Limit, maxLimit)
	p.Offset = max(p.Offset, 0)

	req := bleve.NewSearchRequestOptions(buildQuery(p), p.Limit, p.Offset, false)
	req.Fields = []string{"type", "name"}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	result.Total = res.Total
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["type"].(string); ok {
			hit.Type = DocType(v)
		}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery matches the text against names (boosted), then tag and
// ingredient names, with prefix and fuzzy fallbacks on the name.
func buildQuery(p Params) query.Query {
	text := bleve.NewDisjunctionQuery()

	name := bleve.NewMatchQuery(p.Query)
	name.SetField("name")
	name.SetBoost(3)
	text.AddQuery(name)

	for _, field := range []string{"tags", "ingredients"} {
		q := bleve.NewMatchQuery(p.Query)
		q.SetField(field)
		text.AddQuery(q)
	}

	for _, word := range strings.Fields(strings.ToLower(p.Query)) {
		prefix := bleve.NewPrefixQuery(word)
		prefix.SetField("name")
		text.AddQuery(prefix)

		if len(word) >= 4 {
			fuzzy := bleve.NewFuzzyQuery(word)
			fuzzy.SetField("name")
			fuzzy.SetFuzziness(1)
			fuzzy.SetBoost(0.5)
			text.AddQuery(fuzzy)
		}
	}

	must := []query.Query{text}

	if !p.AllOwners {
		owner := bleve.NewTermQuery(p.OwnerID)
		owner.SetField("owner_id")
		must = append(must, owner)
	}

	if len(p.Types) > 0 {
		types := bleve.NewDisjunctionQuery()
		for _, t := range p.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			types.AddQuery(tq)
		}
		must = append(must, types)
	}

	return bleve.NewConjunctionQuery(must...)
}
