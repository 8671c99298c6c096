package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/search"
	"github.com/recipebook/recipebook-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/search",
		Summary:     "Search",
		Description: "Full-text search over the caller's recipes, tags and ingredients. " +
			"Recipes also match on the names of their tags and ingredients.",
		Tags:     []string{"Search"},
		Security: bearerSecurity,
	}, s.handleSearch)
}

// SearchInput carries the query parameters.
type SearchInput struct {
	Authorization string   `header:"Authorization"`
	Query         string   `query:"q" doc:"Search text"`
	Types         []string `query:"type" enum:"recipe,tag,ingredient" doc:"Restrict to these document types"`
	Limit         int      `query:"limit" minimum:"0" maximum:"100" default:"20"`
	Offset        int      `query:"offset" minimum:"0"`
}

// SearchOutput wraps one page of hits.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if s.services.Search == nil {
		return nil, domainerrors.NotFound("search is disabled")
	}

	types := make([]search.DocType, 0, len(input.Types))
	for _, t := range input.Types {
		types = append(types, search.DocType(t))
	}

	result, err := s.services.Search.Search(ctx, user, service.SearchRequest{
		Query:  input.Query,
		Types:  types,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
