package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/session-registration-api/internal/config"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"

	CookieName    = "auth_token"
	TokenDuration = 24 * time.Hour
)

// RoleChecker looks up whether a Discord user holds a named guild role.
type RoleChecker interface {
	HasRole(discordUserID, roleName string) (bool, error)
}

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
	roles       RoleChecker
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, roles RoleChecker) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:    db,
		cfg:   cfg,
		roles: roles,
	}
}

// AuthInput carries the credentials huma operations accept.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie (auth_token)"`
	APIKey string `header:"X-API-KEY" doc:"API key"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to exchange oauth code")
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	if h.cfg.DiscordGuildID != "" {
		isMember, err := h.isGuildMember(client)
		if err != nil {
			log.Error().Err(err).Msg("Failed to check guild membership")
			http.Error(w, "Failed to get user guilds", http.StatusInternalServerError)
			return
		}
		if !isMember {
			http.Error(w, "Access denied: You are not a member of the required guild.", http.StatusForbidden)
			return
		}
	}

	resp, err := client.Get(DiscordUserAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := h.db.FirstOrInit(&user, models.User{DiscordID: discordUser.ID}).Error; err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	user.Username = discordUser.Username
	user.Email = discordUser.Email
	user.Avatar = discordUser.Avatar

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessionCookie(jwtToken))
	log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("User logged in")

	if h.cfg.FrontendURL != "" {
		http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
		return
	}
	fmt.Fprintf(w, "Welcome %s! You are logged in.", user.Username)
}

func (h *AuthHandler) isGuildMember(client *http.Client) (bool, error) {
	guildsResp, err := client.Get(DiscordUserGuildsAPI)
	if err != nil {
		return false, err
	}
	defer guildsResp.Body.Close()

	var guilds []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(guildsResp.Body).Decode(&guilds); err != nil {
		return false, err
	}

	for _, g := range guilds {
		if g.ID == h.cfg.DiscordGuildID {
			return true, nil
		}
	}
	return false, nil
}

func (h *AuthHandler) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	}
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a session token and returns its user ID and expiry.
func (h *AuthHandler) ParseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, time.Time{}, errors.New("invalid token claims")
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return uint(userIDFloat), expiresAt, nil
}

// LookupAPIKey resolves an API key to its owner and records its use.
func (h *AuthHandler) LookupAPIKey(ctx context.Context, key string) (uint, error) {
	var apiKey models.APIKey
	if err := h.db.WithContext(ctx).Where("key = ?", key).First(&apiKey).Error; err != nil {
		return 0, errors.New("unknown API key")
	}
	if apiKey.Expired(time.Now()) {
		return 0, errors.New("API key expired")
	}

	h.db.WithContext(ctx).Model(&apiKey).Update("last_used_at", time.Now())
	return apiKey.UserID, nil
}

// Authorize returns the calling user's ID. A user already resolved by the
// session middleware wins, then an API key, then the session cookie.
func (h *AuthHandler) Authorize(ctx context.Context, input AuthInput) (uint, error) {
	if userID, ok := ctx.Value(UserIDKey).(uint); ok && userID != 0 {
		return userID, nil
	}

	if input.APIKey != "" && h.db != nil {
		userID, err := h.LookupAPIKey(ctx, input.APIKey)
		if err != nil {
			return 0, huma.Error401Unauthorized("Unauthorized: " + err.Error())
		}
		return userID, nil
	}

	if input.Cookie == "" {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}
	cookies, err := http.ParseCookie(input.Cookie)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: Malformed cookie")
	}
	for _, c := range cookies {
		if c.Name != CookieName {
			continue
		}
		userID, _, err := h.ParseToken(c.Value)
		if err != nil {
			return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
		}
		return userID, nil
	}

	return 0, huma.Error401Unauthorized("Unauthorized: No token found")
}

// IsAdmin grants admin rights to configured Discord IDs and to members
// holding the configured admin role.
func (h *AuthHandler) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return false, err
	}

	if h.cfg.IsAdminDiscordID(user.DiscordID) {
		return true, nil
	}
	if h.roles == nil || h.cfg.AdminRole == "" || user.DiscordID == "" {
		return false, nil
	}
	return h.roles.HasRole(user.DiscordID, h.cfg.AdminRole)
}

// RequireAdmin authorizes the caller and rejects non-admins with 403.
func (h *AuthHandler) RequireAdmin(ctx context.Context, input AuthInput) (uint, error) {
	userID, err := h.Authorize(ctx, input)
	if err != nil {
		return 0, err
	}

	isAdmin, err := h.IsAdmin(ctx, userID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("Failed to check admin role")
		return 0, huma.Error500InternalServerError("Failed to check role")
	}
	if !isAdmin {
		return 0, huma.Error403Forbidden("Access denied: admin only")
	}
	return userID, nil
}

type MeOutput struct {
	Body struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
		IsAdmin  bool   `json:"is_admin"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	userID, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	isAdmin, err := h.IsAdmin(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to check admin role")
	}

	resp := &MeOutput{}
	resp.Body.ID = user.ID
	resp.Body.Username = user.Username
	resp.Body.Email = user.Email
	resp.Body.Avatar = user.Avatar
	resp.Body.IsAdmin = isAdmin
	return resp, nil
}
