package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/session-registration-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth        *auth.AuthHandler
	Reference   *ReferenceHandler
	Registrants *RegistrantHandler
	Admin       *AdminHandler
	APIKeys     *APIKeyHandler
}

func RegisterRoutes(r *chi.Mux, h Handlers) huma.API {
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(h.Auth.SessionMiddleware)

	// Initialize Huma API
	config := huma.DefaultConfig("Session Registration API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/auth/discord/login", h.Auth.HandleLogin)
	r.Get("/auth/discord/callback", h.Auth.HandleCallback)

	huma.Get(api, "/event-days", h.Reference.HandleEventDays)
	huma.Get(api, "/accommodations", h.Reference.HandleAccommodations)
	huma.Get(api, "/day-attender-fees", h.Reference.HandleDayAttenderFees)
	huma.Post(api, "/fees/quote", h.Reference.HandleQuote)

	// Protected routes
	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
	}

	huma.Get(api, "/me", h.Auth.HandleMe, secured)

	huma.Post(api, "/registrants", h.Registrants.HandleCreate, secured)
	huma.Get(api, "/registrants", h.Registrants.HandleList, secured)
	huma.Get(api, "/registrants/{id}", h.Registrants.HandleGet, secured)
	huma.Put(api, "/registrants/{id}", h.Registrants.HandleUpdate, secured)
	huma.Get(api, "/registrants/{id}/history", h.Registrants.HandleHistory, secured)

	huma.Get(api, "/admin/registrants", h.Admin.HandleList, secured)
	huma.Delete(api, "/admin/registrants/{id}", h.Admin.HandleDelete, secured)

	huma.Post(api, "/api-keys", h.APIKeys.HandleCreate, secured)
	huma.Get(api, "/api-keys", h.APIKeys.HandleList, secured)
	huma.Delete(api, "/api-keys/{id}", h.APIKeys.HandleDelete, secured)

	return api
}
