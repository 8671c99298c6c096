package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/service"
	"github.com/recipebook/recipebook-server/internal/store"
)

// namedEntity matches *domain.Tag and *domain.Ingredient.
type namedEntity[T any] interface {
	*T
	Base() *domain.NamedEntity
}

// namedRoutes describes one tag-like resource.
type namedRoutes struct {
	path     string // collection path, e.g. /api/tags
	opPrefix string // operationId stem, e.g. Tag
	group    string // OpenAPI tag
}

func (s *Server) registerTagRoutes() {
	registerNamedRoutes(s, s.services.Tags, namedRoutes{path: "/api/tags", opPrefix: "Tag", group: "Tags"})
}

func (s *Server) registerIngredientRoutes() {
	registerNamedRoutes(s, s.services.Ingredients, namedRoutes{path: "/api/ingredients", opPrefix: "Ingredient", group: "Ingredients"})
}

// === DTOs ===

// NamedResponse is the wire form of a tag or ingredient.
type NamedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newNamedResponse(e *domain.NamedEntity) NamedResponse {
	return NamedResponse{ID: e.ID, Name: e.Name}
}

func newNamedResponses[T any, PT namedEntity[T]](items []*T) []NamedResponse {
	out := make([]NamedResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newNamedResponse(PT(item).Base()))
	}
	return out
}

// NamedOutput wraps a single tag or ingredient.
type NamedOutput struct {
	Body NamedResponse
}

// NamedListOutput wraps a tag or ingredient listing.
type NamedListOutput struct {
	Body []NamedResponse
}

// ListNamedInput filters a tag or ingredient listing.
type ListNamedInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  string `query:"assigned_only" doc:"1 keeps only entries attached to a recipe"`
}

// NamedBody is the create and rename payload.
type NamedBody struct {
	Name string `json:"name,omitempty" doc:"Display name, at most 50 characters"`
}

// CreateNamedInput wraps a create request.
type CreateNamedInput struct {
	Authorization string `header:"Authorization"`
	Body          NamedBody
}

// NamedIDInput addresses one tag or ingredient.
type NamedIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id"`
}

// RenameNamedInput wraps a rename request.
type RenameNamedInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id"`
	Body          NamedBody
}

// registerNamedRoutes wires list, create, get, rename (PUT and PATCH) and
// delete for one tag-like service.
func registerNamedRoutes[T any, PT namedEntity[T]](s *Server, svc *service.NamedService[T, PT], r namedRoutes) {
	item := r.path + "/{id}"
	security := bearerSecurity

	huma.Register(s.api, huma.Operation{
		OperationID: "list" + r.opPrefix + "s",
		Method:      http.MethodGet,
		Path:        r.path,
		Summary:     "List " + r.group,
		Description: "Returns the caller's own entries ordered by name, last first",
		Tags:        []string{r.group},
		Security:    security,
	}, func(ctx context.Context, input *ListNamedInput) (*NamedListOutput, error) {
		user, err := s.authenticate(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}
		assignedOnly, err := parseFlag("assigned_only", input.AssignedOnly)
		if err != nil {
			return nil, err
		}
		items, err := svc.List(ctx, user, store.NamedFilter{AssignedOnly: assignedOnly})
		if err != nil {
			return nil, err
		}
		return &NamedListOutput{Body: newNamedResponses[T, PT](items)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "create" + r.opPrefix,
		Method:        http.MethodPost,
		Path:          r.path,
		Summary:       "Create " + r.opPrefix,
		Tags:          []string{r.group},
		Security:      security,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateNamedInput) (*NamedOutput, error) {
		user, err := s.authenticate(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}
		created, err := svc.Create(ctx, user, service.NamedRequest{Name: input.Body.Name})
		if err != nil {
			return nil, err
		}
		return &NamedOutput{Body: newNamedResponse(PT(created).Base())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get" + r.opPrefix,
		Method:      http.MethodGet,
		Path:        item,
		Summary:     "Get " + r.opPrefix,
		Tags:        []string{r.group},
		Security:    security,
	}, func(ctx context.Context, input *NamedIDInput) (*NamedOutput, error) {
		user, err := s.authenticate(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}
		found, err := svc.Get(ctx, user, input.ID)
		if err != nil {
			return nil, err
		}
		return &NamedOutput{Body: newNamedResponse(PT(found).Base())}, nil
	})

	rename := func(ctx context.Context, input *RenameNamedInput) (*NamedOutput, error) {
		user, err := s.authenticate(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}
		updated, err := svc.Rename(ctx, user, input.ID, service.NamedRequest{Name: input.Body.Name})
		if err != nil {
			return nil, err
		}
		return &NamedOutput{Body: newNamedResponse(PT(updated).Base())}, nil
	}

	// The name is the only field, so full and partial updates coincide.
	huma.Register(s.api, huma.Operation{
		OperationID: "replace" + r.opPrefix,
		Method:      http.MethodPut,
		Path:        item,
		Summary:     "Rename " + r.opPrefix,
		Tags:        []string{r.group},
		Security:    security,
	}, rename)

	huma.Register(s.api, huma.Operation{
		OperationID: "update" + r.opPrefix,
		Method:      http.MethodPatch,
		Path:        item,
		Summary:     "Rename " + r.opPrefix,
		Tags:        []string{r.group},
		Security:    security,
	}, rename)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete" + r.opPrefix,
		Method:        http.MethodDelete,
		Path:          item,
		Summary:       "Delete " + r.opPrefix,
		Description:   "Deletes the entry and detaches it from every recipe",
		Tags:          []string{r.group},
		Security:      security,
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *NamedIDInput) (*struct{}, error) {
		user, err := s.authenticate(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}
		if err := svc.Delete(ctx, user, input.ID); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// parseFlag reads a 0/1 query flag. An absent flag is off.
func parseFlag(name, raw string) (bool, error) {
	switch raw {
	case "", "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{name: "must be 0 or 1"})
	}
}
