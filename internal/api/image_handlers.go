package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/recipebook/recipebook-server/internal/http/response"
)

// imageField is the multipart form field carrying the upload.
const imageField = "image"

func (s *Server) registerImageRoutes() {
	// Upload and download stream raw bytes, so they bypass huma.
	s.router.Post("/api/recipes/{id}/image", s.handleUploadImage)
	s.router.Get("/api/recipes/{id}/image", s.handleGetImage)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipeImage",
		Method:        http.MethodDelete,
		Path:          "/api/recipes/{id}/image",
		Summary:       "Delete recipe image",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteImage)
}

// handleUploadImage accepts a multipart upload in the "image" field and
// attaches it to the recipe, replacing any earlier image.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := s.authenticate(ctx, r.Header.Get("Authorization"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, "image exceeds "+strconv.FormatInt(s.maxUploadBytes, 10)+" bytes", s.logger)
			return
		}
		response.BadRequest(w, "multipart field \"image\" is required", s.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, "image exceeds "+strconv.FormatInt(s.maxUploadBytes, 10)+" bytes", s.logger)
			return
		}
		s.logger.Error("failed to read upload", "error", err)
		response.InternalError(w, "failed to read upload", s.logger)
		return
	}

	recipe, err := s.services.Recipes.UploadImage(ctx, user, chi.URLParam(r, "id"), header.Filename, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ImageUploadResponse{
		ID: recipe.ID,
		Image: ImageResponse{
			URL:         imageURL(recipe.ID),
			ContentType: recipe.Image.ContentType,
			Size:        recipe.Image.Size,
			BlurHash:    recipe.Image.BlurHash,
		},
	}, s.logger)
}

// ImageUploadResponse is returned after a successful upload.
type ImageUploadResponse struct {
	ID    string        `json:"id"`
	Image ImageResponse `json:"image"`
}

// handleGetImage serves the stored image. Range and conditional requests
// are handled by http.ServeContent.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := s.authenticate(ctx, r.Header.Get("Authorization"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	meta, data, err := s.services.Recipes.Image(ctx, user, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	// Stored names are never reused, so the zero modtime is safe.
	http.ServeContent(w, r, meta.Filename, time.Time{}, bytes.NewReader(data))
}

func (s *Server) handleDeleteImage(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.services.Recipes.DeleteImage(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
