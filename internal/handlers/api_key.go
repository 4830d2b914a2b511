package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/session-registration-api/internal/auth"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// APIKeyHandler lets registrars script against the API with X-API-KEY
// instead of a browser session.
type APIKeyHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewAPIKeyHandler(db *gorm.DB, authHandler *auth.AuthHandler) *APIKeyHandler {
	return &APIKeyHandler{db: db, authHandler: authHandler}
}

type APIKeyRequest struct {
	auth.AuthInput
	Body struct {
		Name      string     `json:"name" maxLength:"100" doc:"Label for the key, e.g. the script using it"`
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Optional expiry"`
	}
}

type APIKeyIDRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type APIKeyResponse struct {
	Body APIKeyView
}

type ListAPIKeysResponse struct {
	Body struct {
		APIKeys []APIKeyView `json:"api_keys"`
	}
}

// HandleCreate returns the full key. It is the only response that does.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *APIKeyRequest) (*APIKeyResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	key, err := models.NewAPIKey(userID, input.Body.Name, input.Body.ExpiresAt)
	if err != nil {
		return nil, asStatusError(err, "Failed to generate API key")
	}
	if err := h.db.WithContext(ctx).Create(&key).Error; err != nil {
		return nil, asStatusError(err, "Failed to create API key")
	}

	log.Info().Uint("user_id", userID).Uint("api_key_id", key.ID).Msg("API key created")
	return &APIKeyResponse{Body: newAPIKeyView(key, true)}, nil
}

func (h *APIKeyHandler) HandleList(ctx context.Context, input *auth.AuthInput) (*ListAPIKeysResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var keys []models.APIKey
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&keys).Error; err != nil {
		return nil, asStatusError(err, "Failed to list API keys")
	}

	resp := &ListAPIKeysResponse{}
	resp.Body.APIKeys = make([]APIKeyView, 0, len(keys))
	for _, k := range keys {
		resp.Body.APIKeys = append(resp.Body.APIKeys, newAPIKeyView(k, false))
	}
	return resp, nil
}

// HandleDelete revokes one of the caller's keys. Other users' keys look
// missing.
func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *APIKeyIDRequest) (*struct{}, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	result := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", input.ID, userID).Delete(&models.APIKey{})
	if result.Error != nil {
		return nil, asStatusError(result.Error, "Failed to delete API key")
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("API key not found")
	}

	log.Info().Uint("user_id", userID).Uint("api_key_id", input.ID).Msg("API key revoked")
	return nil, nil
}
