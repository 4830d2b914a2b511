package handlers

import (
	"context"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"gorm.io/gorm"
)

type ReferenceHandler struct {
	db *gorm.DB
}

func NewReferenceHandler(db *gorm.DB) *ReferenceHandler {
	return &ReferenceHandler{db: db}
}

type EventDaysResponse struct {
	Body struct {
		EventDays []EventDayView `json:"event_days"`
	}
}

func (h *ReferenceHandler) HandleEventDays(ctx context.Context, input *struct{}) (*EventDaysResponse, error) {
	var days []models.EventDay
	if err := h.db.WithContext(ctx).Order("date asc").Find(&days).Error; err != nil {
		return nil, asStatusError(err, "Failed to list event days")
	}

	resp := &EventDaysResponse{}
	resp.Body.EventDays = make([]EventDayView, 0, len(days))
	for _, d := range days {
		resp.Body.EventDays = append(resp.Body.EventDays, newEventDayView(d))
	}
	return resp, nil
}

type AccommodationsRequest struct {
	Age string `query:"age" doc:"Only list tiers available at this age"`
}

type AccommodationsResponse struct {
	Body struct {
		Accommodations []AccommodationView `json:"accommodations"`
	}
}

func (h *ReferenceHandler) HandleAccommodations(ctx context.Context, input *AccommodationsRequest) (*AccommodationsResponse, error) {
	age := -1
	if input.Age != "" {
		v, err := strconv.Atoi(input.Age)
		if err != nil || v < 0 {
			return nil, huma.Error422UnprocessableEntity("age must be a non-negative integer")
		}
		age = v
	}

	var tiers []models.AccommodationFee
	if err := h.db.WithContext(ctx).Order("name asc").Find(&tiers).Error; err != nil {
		return nil, asStatusError(err, "Failed to list accommodations")
	}

	resp := &AccommodationsResponse{}
	resp.Body.Accommodations = make([]AccommodationView, 0, len(tiers))
	for _, t := range tiers {
		if age >= 0 && !t.EligibleFor(age) {
			continue
		}
		resp.Body.Accommodations = append(resp.Body.Accommodations, newAccommodationView(t))
	}
	return resp, nil
}

type DayAttenderFeesResponse struct {
	Body struct {
		DayAttenderFees []DayAttenderFeeView `json:"day_attender_fees"`
	}
}

func (h *ReferenceHandler) HandleDayAttenderFees(ctx context.Context, input *struct{}) (*DayAttenderFeesResponse, error) {
	var rows []models.DayAttenderFee
	if err := h.db.WithContext(ctx).Order("age_min asc").Find(&rows).Error; err != nil {
		return nil, asStatusError(err, "Failed to list day attender fees")
	}

	resp := &DayAttenderFeesResponse{}
	resp.Body.DayAttenderFees = make([]DayAttenderFeeView, 0, len(rows))
	for _, r := range rows {
		resp.Body.DayAttenderFees = append(resp.Body.DayAttenderFees, DayAttenderFeeView{
			AgeMin:   r.AgeMin,
			AgeMax:   r.AgeMax,
			DailyFee: r.DailyFee.String(),
		})
	}
	return resp, nil
}

type QuoteRequest struct {
	Body struct {
		RegistrationType   fees.AttendanceType `json:"registration_type,omitempty" enum:"overnight_attender,day_attender,memorials_only" default:"overnight_attender"`
		Age                int                 `json:"age" minimum:"0"`
		DaysAttending      []uint              `json:"days_attending,omitempty"`
		AccommodationFeeID *uint               `json:"accommodation_fee_id,omitempty"`
	}
}

type QuoteResponse struct {
	Body FeeView
}

// HandleQuote prices unsaved form data so the fee can be shown before the
// registrant is submitted. It rejects exactly what a create would reject.
func (h *ReferenceHandler) HandleQuote(ctx context.Context, input *QuoteRequest) (*QuoteResponse, error) {
	calc, err := loadCalculator(ctx, h.db)
	if err != nil {
		return nil, err
	}

	_, b, err := resolveSelection(ctx, h.db, calc, input.Body.RegistrationType, input.Body.Age, input.Body.DaysAttending, input.Body.AccommodationFeeID)
	if err != nil {
		return nil, asStatusError(err, "Failed to price registration")
	}

	return &QuoteResponse{Body: newFeeView(b)}, nil
}
