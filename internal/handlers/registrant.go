package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/session-registration-api/internal/auth"
	"github.com/gdg-garage/session-registration-api/internal/database"
	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"github.com/gdg-garage/session-registration-api/internal/notifier"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegistrantHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewRegistrantHandler(db *gorm.DB, notifier notifier.Notifier, authHandler *auth.AuthHandler) *RegistrantHandler {
	return &RegistrantHandler{db: db, notifier: notifier, authHandler: authHandler}
}

type RegistrantBody struct {
	RegistrationType              fees.AttendanceType `json:"registration_type,omitempty" enum:"overnight_attender,day_attender,memorials_only" default:"overnight_attender" doc:"Overnight attender needs accommodation, day attender commutes daily, memorials only attends the Meeting for Memorials"`
	FirstName                     string              `json:"first_name" maxLength:"255" doc:"Registrant first name"`
	LastName                      string              `json:"last_name" maxLength:"255" doc:"Registrant last name"`
	Age                           int                 `json:"age" minimum:"0" doc:"Age at time of the event"`
	Email                         *string             `json:"email,omitempty" format:"email" doc:"Personal email for this registrant, if applicable"`
	NeedsAccessibleAccommodations bool                `json:"needs_accessible_accommodations,omitempty" doc:"Whether accessible accommodations are needed, such as a wheelchair ramp"`
	DaysAttending                 []uint              `json:"days_attending,omitempty" doc:"IDs of the event days the registrant attends"`
	AccommodationFeeID            *uint               `json:"accommodation_fee_id,omitempty" doc:"Overnight accommodation tier"`
}

type RegistrantRequest struct {
	auth.AuthInput
	Body RegistrantBody
}

type UpdateRegistrantRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body RegistrantBody
}

type RegistrantIDRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type RegistrantResponse struct {
	Body RegistrantView
}

type ListRegistrantsResponse struct {
	Body struct {
		Registrants []RegistrantView `json:"registrants"`
	}
}

func preloadRegistrant(db *gorm.DB) *gorm.DB {
	return db.
		Preload("DaysAttending", func(db *gorm.DB) *gorm.DB { return db.Order("date asc") }).
		Preload("AccommodationFee")
}

// apply validates the body, prices it and copies it onto r. References are
// resolved through tx so a rejected fee rolls the save back.
func apply(ctx context.Context, tx *gorm.DB, calc *fees.Calculator, body RegistrantBody, r *models.Registrant) (fees.Breakdown, error) {
	firstName := strings.TrimSpace(body.FirstName)
	lastName := strings.TrimSpace(body.LastName)
	if firstName == "" || lastName == "" {
		return fees.Breakdown{}, huma.Error422UnprocessableEntity("First and last name are required")
	}

	sel, b, err := resolveSelection(ctx, tx, calc, body.RegistrationType, body.Age, body.DaysAttending, body.AccommodationFeeID)
	if err != nil {
		return fees.Breakdown{}, err
	}

	email := body.Email
	if email != nil && strings.TrimSpace(*email) == "" {
		email = nil
	}

	r.RegistrantFields = models.RegistrantFields{
		RegistrationType:              sel.Type,
		FirstName:                     firstName,
		LastName:                      lastName,
		Age:                           sel.Age,
		Email:                         email,
		NeedsAccessibleAccommodations: body.NeedsAccessibleAccommodations,
	}
	r.DaysAttending = sel.Days
	r.AccommodationFee = sel.Accommodation
	r.AccommodationFeeID = nil
	if sel.Accommodation != nil {
		r.AccommodationFeeID = &sel.Accommodation.ID
	}
	return b, nil
}

// save writes the registrant, replaces its day selection and records a
// history snapshot.
func save(tx *gorm.DB, r *models.Registrant) error {
	if err := tx.Omit(clause.Associations).Save(r).Error; err != nil {
		return err
	}

	days := tx.Model(r).Association("DaysAttending")
	if len(r.DaysAttending) == 0 {
		if err := days.Clear(); err != nil {
			return err
		}
	} else if err := days.Replace(r.DaysAttending); err != nil {
		return err
	}

	history := models.NewRegistrantHistory(*r)
	return tx.Create(&history).Error
}

// asStatusError passes huma errors through and hides everything else
// behind a 500.
func asStatusError(err error, msg string) error {
	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}
	log.Error().Err(err).Msg(msg)
	return huma.Error500InternalServerError(msg)
}

func loadCalculator(ctx context.Context, db *gorm.DB) (*fees.Calculator, error) {
	calc, err := database.LoadCalculator(ctx, db)
	if err != nil {
		log.Error().Err(err).Msg("Fee configuration is invalid")
		return nil, huma.Error500InternalServerError("Fee configuration error")
	}
	return calc, nil
}

func (h *RegistrantHandler) view(calc *fees.Calculator, r models.Registrant) (RegistrantView, error) {
	b, err := calc.Breakdown(r.Selection())
	if err != nil {
		log.Error().Err(err).Uint("registrant_id", r.ID).Int("age", r.Age).Msg("Failed to compute registration fee")
		return RegistrantView{}, huma.Error500InternalServerError("Fee configuration error")
	}
	return newRegistrantView(r, b), nil
}

func (h *RegistrantHandler) notify(ctx context.Context, userID uint, r models.Registrant, fee fees.Money, updated bool) {
	if h.notifier == nil {
		return
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to load user for notification")
	}

	event := notifier.Event{User: user, Registrant: r, Fee: fee, Updated: updated}
	if err := h.notifier.NotifyRegistrant(event); err != nil {
		log.Error().Err(err).Uint("registrant_id", r.ID).Msg("Failed to send notification")
	}
}

func (h *RegistrantHandler) HandleCreate(ctx context.Context, input *RegistrantRequest) (*RegistrantResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	registrant := models.Registrant{
		Reference: uuid.NewString(),
		UserID:    &userID,
	}
	var breakdown fees.Breakdown
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		calc, err := loadCalculator(ctx, tx)
		if err != nil {
			return err
		}
		if breakdown, err = apply(ctx, tx, calc, input.Body, &registrant); err != nil {
			return err
		}
		return save(tx, &registrant)
	})
	if err != nil {
		return nil, asStatusError(err, "Failed to save registrant")
	}
	view := newRegistrantView(registrant, breakdown)

	log.Info().Uint("registrant_id", registrant.ID).Uint("user_id", userID).Str("fee", view.Fee.Fee).Msg("Registrant added")
	h.notify(ctx, userID, registrant, fees.Money(view.Fee.FeeCents), false)

	return &RegistrantResponse{Body: view}, nil
}

func (h *RegistrantHandler) HandleList(ctx context.Context, input *auth.AuthInput) (*ListRegistrantsResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var registrants []models.Registrant
	if err := preloadRegistrant(h.db.WithContext(ctx)).Where("user_id = ?", userID).Order("id asc").Find(&registrants).Error; err != nil {
		return nil, asStatusError(err, "Failed to list registrants")
	}

	calc, err := loadCalculator(ctx, h.db)
	if err != nil {
		return nil, err
	}

	resp := &ListRegistrantsResponse{}
	resp.Body.Registrants = make([]RegistrantView, 0, len(registrants))
	for _, r := range registrants {
		view, err := h.view(calc, r)
		if err != nil {
			return nil, err
		}
		resp.Body.Registrants = append(resp.Body.Registrants, view)
	}
	return resp, nil
}

// load fetches a registrant the caller may read: its owner or an admin.
func (h *RegistrantHandler) load(ctx context.Context, db *gorm.DB, userID, id uint, ownerOnly bool) (*models.Registrant, error) {
	var registrant models.Registrant
	if err := preloadRegistrant(db.WithContext(ctx)).First(&registrant, id).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, huma.Error404NotFound("Registrant not found")
	} else if err != nil {
		return nil, err
	}

	if registrant.OwnedBy(userID) {
		return &registrant, nil
	}
	if !ownerOnly {
		isAdmin, err := h.authHandler.IsAdmin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if isAdmin {
			return &registrant, nil
		}
	}
	return nil, huma.Error403Forbidden("Access denied: not your registrant")
}

func (h *RegistrantHandler) HandleGet(ctx context.Context, input *RegistrantIDRequest) (*RegistrantResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	registrant, err := h.load(ctx, h.db, userID, input.ID, false)
	if err != nil {
		return nil, asStatusError(err, "Failed to load registrant")
	}

	calc, err := loadCalculator(ctx, h.db)
	if err != nil {
		return nil, err
	}
	view, err := h.view(calc, *registrant)
	if err != nil {
		return nil, err
	}
	return &RegistrantResponse{Body: view}, nil
}

func (h *RegistrantHandler) HandleUpdate(ctx context.Context, input *UpdateRegistrantRequest) (*RegistrantResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var registrant *models.Registrant
	var breakdown fees.Breakdown
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		registrant, err = h.load(ctx, tx, userID, input.ID, true)
		if err != nil {
			return err
		}
		calc, err := loadCalculator(ctx, tx)
		if err != nil {
			return err
		}
		if breakdown, err = apply(ctx, tx, calc, input.Body, registrant); err != nil {
			return err
		}
		return save(tx, registrant)
	})
	if err != nil {
		return nil, asStatusError(err, "Failed to save registrant")
	}
	view := newRegistrantView(*registrant, breakdown)

	log.Info().Uint("registrant_id", registrant.ID).Uint("user_id", userID).Str("fee", view.Fee.Fee).Msg("Registrant updated")
	h.notify(ctx, userID, *registrant, fees.Money(view.Fee.FeeCents), true)

	return &RegistrantResponse{Body: view}, nil
}

type RegistrantHistoryEntry struct {
	ID                 uint                    `json:"id"`
	CreatedAt          string                  `json:"created_at"`
	DayIDs             []uint                  `json:"day_ids"`
	AccommodationFeeID *uint                   `json:"accommodation_fee_id,omitempty"`
	Fields             models.RegistrantFields `json:"fields"`
}

type RegistrantHistoryResponse struct {
	Body struct {
		History []RegistrantHistoryEntry `json:"history"`
	}
}

func (h *RegistrantHandler) HandleHistory(ctx context.Context, input *RegistrantIDRequest) (*RegistrantHistoryResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if _, err := h.load(ctx, h.db, userID, input.ID, false); err != nil {
		return nil, asStatusError(err, "Failed to load registrant")
	}

	var history []models.RegistrantHistory
	if err := h.db.WithContext(ctx).Where("registrant_id = ?", input.ID).Order("id desc").Find(&history).Error; err != nil {
		return nil, asStatusError(err, "Failed to load history")
	}

	resp := &RegistrantHistoryResponse{}
	resp.Body.History = make([]RegistrantHistoryEntry, 0, len(history))
	for _, e := range history {
		resp.Body.History = append(resp.Body.History, RegistrantHistoryEntry{
			ID:                 e.ID,
			CreatedAt:          e.CreatedAt.Format(time.RFC3339),
			DayIDs:             models.SplitIDs(e.DayIDs),
			AccommodationFeeID: e.AccommodationFeeID,
			Fields:             e.RegistrantFields,
		})
	}
	return resp, nil
}
