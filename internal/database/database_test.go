package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"gorm.io/gorm"
)

const seedYAML = `
event_days:
  - date: "2026-07-20"
    label: Monday
  - date: "2026-07-21"
    label: Tuesday
    partial_day_discount: 10
  - date: 2026-07-22
    label: Wednesday
    partial_day_discount: "5.50"
accommodation_fees:
  - name: Dormitory
    full_week_fee: 500
    daily_fee: 80
  - name: Family cabin
    full_week_fee: "750.00"
    daily_fee: 120.5
    age_min: 18
day_attender_fees:
  - age_min: 0
    age_max: 12
    daily_fee: 20
  - age_min: 13
    age_max: 17
    daily_fee: 30
  - age_min: 18
    age_max: 120
    daily_fee: 40
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestSeedFile(t *testing.T) {
	db := newTestDB(t)
	path := writeSeed(t, seedYAML)

	// Seeding twice must not duplicate anything.
	for i := 0; i < 2; i++ {
		if err := SeedFile(db, path); err != nil {
			t.Fatalf("SeedFile (run %d) returned error: %v", i+1, err)
		}
	}

	var days []models.EventDay
	db.Order("date asc").Find(&days)
	if len(days) != 3 {
		t.Fatalf("expected 3 event days, got %d", len(days))
	}
	if days[0].PartialDayDiscount != nil {
		t.Error("expected first day to have no discount")
	}
	if days[1].PartialDayDiscount == nil || *days[1].PartialDayDiscount != 1000 {
		t.Errorf("expected 10.00 discount on day 2, got %v", days[1].PartialDayDiscount)
	}
	if days[2].PartialDayDiscount == nil || *days[2].PartialDayDiscount != 550 {
		t.Errorf("expected 5.50 discount on day 3, got %v", days[2].PartialDayDiscount)
	}

	var cabin models.AccommodationFee
	if err := db.Where("name = ?", "Family cabin").First(&cabin).Error; err != nil {
		t.Fatalf("failed to find cabin: %v", err)
	}
	if cabin.DailyFee != 12050 || cabin.FullWeekFee != 75000 {
		t.Errorf("unexpected cabin fees %s / %s", cabin.DailyFee, cabin.FullWeekFee)
	}
	if cabin.AgeMin == nil || *cabin.AgeMin != 18 || cabin.AgeMax != nil {
		t.Errorf("unexpected cabin age range %v-%v", cabin.AgeMin, cabin.AgeMax)
	}

	var count int64
	db.Model(&models.DayAttenderFee{}).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 day attender fees, got %d", count)
	}
}

func TestSeedFile_RejectsGappedRates(t *testing.T) {
	db := newTestDB(t)
	path := writeSeed(t, `
day_attender_fees:
  - age_min: 0
    age_max: 12
    daily_fee: 20
  - age_min: 18
    age_max: 120
    daily_fee: 40
`)

	err := SeedFile(db, path)
	if !errors.Is(err, fees.ErrInvalidRateTable) {
		t.Fatalf("expected ErrInvalidRateTable, got %v", err)
	}

	var count int64
	db.Model(&models.DayAttenderFee{}).Count(&count)
	if count != 0 {
		t.Errorf("expected nothing to be written, got %d rows", count)
	}
}

func TestLoadCalculator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := LoadCalculator(ctx, db); !errors.Is(err, fees.ErrInvalidRateTable) {
		t.Fatalf("expected ErrInvalidRateTable for empty table, got %v", err)
	}

	if err := SeedFile(db, writeSeed(t, seedYAML)); err != nil {
		t.Fatalf("SeedFile returned error: %v", err)
	}

	calc, err := LoadCalculator(ctx, db)
	if err != nil {
		t.Fatalf("LoadCalculator returned error: %v", err)
	}
	if calc.TotalEventDays() != 3 {
		t.Errorf("expected 3 event days, got %d", calc.TotalEventDays())
	}

	fee, err := calc.Fee(fees.Selection{Type: fees.DayAttender, Age: 15, Days: []fees.Day{{ID: 1}, {ID: 2}}})
	if err != nil {
		t.Fatalf("Fee returned error: %v", err)
	}
	if fee != 6000 {
		t.Errorf("expected fee 60.00, got %s", fee)
	}
}

func TestFindEventDays(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := SeedFile(db, writeSeed(t, seedYAML)); err != nil {
		t.Fatalf("SeedFile returned error: %v", err)
	}

	days, err := FindEventDays(ctx, db, []uint{2, 1, 2})
	if err != nil {
		t.Fatalf("FindEventDays returned error: %v", err)
	}
	if len(days) != 2 {
		t.Errorf("expected 2 days, got %d", len(days))
	}

	if _, err := FindEventDays(ctx, db, []uint{1, 99}); !errors.Is(err, ErrUnknownEventDay) {
		t.Errorf("expected ErrUnknownEventDay, got %v", err)
	}

	days, err = FindEventDays(ctx, db, nil)
	if err != nil || len(days) != 0 {
		t.Errorf("expected no days and no error, got %v, %v", days, err)
	}
}

const shortenedSeedYAML = `
event_days:
  - date: "2026-07-20"
    label: Monday
  - date: "2026-07-21"
    label: Tuesday
accommodation_fees:
  - name: Dormitory
    full_week_fee: 500
    daily_fee: 80
day_attender_fees:
  - age_min: 0
    age_max: 120
    daily_fee: 40
`

func TestSeedFile_RemovesDroppedReferenceData(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	full := writeSeed(t, seedYAML)
	shortened := writeSeed(t, shortenedSeedYAML)

	counts := func() (days, tiers int64) {
		db.Model(&models.EventDay{}).Count(&days)
		db.Model(&models.AccommodationFee{}).Count(&tiers)
		return days, tiers
	}

	if err := SeedFile(db, full); err != nil {
		t.Fatalf("SeedFile returned error: %v", err)
	}
	if err := SeedFile(db, shortened); err != nil {
		t.Fatalf("SeedFile (shortened) returned error: %v", err)
	}
	if days, tiers := counts(); days != 2 || tiers != 1 {
		t.Fatalf("expected 2 days and 1 tier, got %d and %d", days, tiers)
	}
	calc, err := LoadCalculator(ctx, db)
	if err != nil {
		t.Fatalf("LoadCalculator returned error: %v", err)
	}
	if calc.TotalEventDays() != 2 {
		t.Errorf("expected a 2 day week, got %d", calc.TotalEventDays())
	}

	// Reseeding the full file brings the removed rows back.
	if err := SeedFile(db, full); err != nil {
		t.Fatalf("SeedFile (restore) returned error: %v", err)
	}
	if days, tiers := counts(); days != 3 || tiers != 2 {
		t.Fatalf("expected 3 days and 2 tiers, got %d and %d", days, tiers)
	}

	var wednesday models.EventDay
	if err := db.Where("label = ?", "Wednesday").First(&wednesday).Error; err != nil {
		t.Fatalf("failed to find Wednesday: %v", err)
	}
	var cabin models.AccommodationFee
	if err := db.Where("name = ?", "Family cabin").First(&cabin).Error; err != nil {
		t.Fatalf("failed to find cabin: %v", err)
	}
	registrant := models.Registrant{
		Reference:          "attends-wednesday",
		RegistrantFields:   models.RegistrantFields{RegistrationType: fees.OvernightAttender, FirstName: "Lucretia", LastName: "Mott", Age: 30},
		DaysAttending:      []models.EventDay{wednesday},
		AccommodationFeeID: &cabin.ID,
	}
	if err := db.Create(&registrant).Error; err != nil {
		t.Fatalf("failed to create registrant: %v", err)
	}

	err = SeedFile(db, shortened)
	if !errors.Is(err, ErrAttendedEventDay) {
		t.Fatalf("expected ErrAttendedEventDay, got %v", err)
	}
	if days, tiers := counts(); days != 3 || tiers != 2 {
		t.Errorf("expected the failed seed to change nothing, got %d days and %d tiers", days, tiers)
	}
}
