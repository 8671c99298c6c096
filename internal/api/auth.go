package api

import (
	"context"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/service"
)

// bearerSecurity marks an operation as requiring a token in the OpenAPI document.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// authenticate resolves the Authorization header to the calling user.
// Every protected handler calls it explicitly; nothing is stashed in the context.
func (s *Server) authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	return s.services.Credentials.ResolveToken(ctx, service.TokenFromHeader(authHeader))
}
