package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/session-registration-api/internal/auth"
	"github.com/gdg-garage/session-registration-api/internal/config"
	"github.com/gdg-garage/session-registration-api/internal/database"
	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"github.com/gdg-garage/session-registration-api/internal/notifier"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	events []notifier.Event
}

func (n *recordingNotifier) NotifyRegistrant(event notifier.Event) error {
	n.events = append(n.events, event)
	return nil
}

type testEnv struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
	registrants *RegistrantHandler
	admin       *AdminHandler
	reference   *ReferenceHandler
	notifier    *recordingNotifier

	owner, other, registrar models.User
	dayIDs                  []uint
	dormitoryID, cabinID    uint
}

func money(v fees.Money) *fees.Money {
	return &v
}

// newTestEnv seeds a seven day session where days 2 and 3 carry partial day
// discounts of 10.00 and 5.00.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	adultsOnly := 18
	start := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	ref := &database.Reference{
		AccommodationFees: []models.AccommodationFee{
			{Name: "Dormitory", FullWeekFee: 50000, DailyFee: 8000},
			{Name: "Family cabin", FullWeekFee: 90000, DailyFee: 15000, AgeMin: &adultsOnly},
		},
		DayAttenderFees: []models.DayAttenderFee{
			{AgeMin: 0, AgeMax: 12, DailyFee: 2000},
			{AgeMin: 13, AgeMax: 17, DailyFee: 3000},
			{AgeMin: 18, AgeMax: 120, DailyFee: 4000},
		},
	}
	for i := 0; i < 7; i++ {
		day := models.EventDay{Date: start.AddDate(0, 0, i), Label: start.AddDate(0, 0, i).Weekday().String()}
		switch i {
		case 1:
			day.PartialDayDiscount = money(1000)
		case 2:
			day.PartialDayDiscount = money(500)
		}
		ref.EventDays = append(ref.EventDays, day)
	}
	if err := database.Seed(db, ref); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	env := &testEnv{db: db, notifier: &recordingNotifier{}}
	for _, d := range ref.EventDays {
		env.dayIDs = append(env.dayIDs, d.ID)
	}
	env.dormitoryID = ref.AccommodationFees[0].ID
	env.cabinID = ref.AccommodationFees[1].ID

	env.owner = models.User{DiscordID: "owner", Username: "owner"}
	env.other = models.User{DiscordID: "other", Username: "other"}
	env.registrar = models.User{DiscordID: "registrar", Username: "registrar"}
	for _, u := range []*models.User{&env.owner, &env.other, &env.registrar} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
	}

	cfg := &config.Config{JWTSecret: "test-secret", AdminDiscordIDs: []string{"registrar"}}
	env.authHandler = auth.NewAuthHandler(cfg, db, nil)
	env.registrants = NewRegistrantHandler(db, env.notifier, env.authHandler)
	env.admin = NewAdminHandler(db, env.authHandler)
	env.reference = NewReferenceHandler(db)

	return env
}

func (e *testEnv) as(t *testing.T, user models.User) auth.AuthInput {
	t.Helper()
	token, err := e.authHandler.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return auth.AuthInput{Cookie: "auth_token=" + token}
}

func (e *testEnv) create(t *testing.T, user models.User, body RegistrantBody) RegistrantView {
	t.Helper()
	resp, err := e.registrants.HandleCreate(t.Context(), &RegistrantRequest{AuthInput: e.as(t, user), Body: body})
	if err != nil {
		t.Fatalf("HandleCreate returned error: %v", err)
	}
	return resp.Body
}

func statusOf(err error) int {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se.GetStatus()
	}
	return 0
}

func ptr[T any](v T) *T {
	return &v
}
