package database

import (
	"fmt"
	"time"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedData is the reference data file layout. Money values may be written
// as numbers or strings ("80.50").
type SeedData struct {
	EventDays []struct {
		Date               any    `mapstructure:"date"`
		Label              string `mapstructure:"label"`
		PartialDayDiscount string `mapstructure:"partial_day_discount"`
	} `mapstructure:"event_days"`
	AccommodationFees []struct {
		Name        string `mapstructure:"name"`
		FullWeekFee string `mapstructure:"full_week_fee"`
		DailyFee    string `mapstructure:"daily_fee"`
		AgeMin      *int   `mapstructure:"age_min"`
		AgeMax      *int   `mapstructure:"age_max"`
	} `mapstructure:"accommodation_fees"`
	DayAttenderFees []struct {
		AgeMin   int    `mapstructure:"age_min"`
		AgeMax   int    `mapstructure:"age_max"`
		DailyFee string `mapstructure:"daily_fee"`
	} `mapstructure:"day_attender_fees"`
}

type Reference struct {
	EventDays         []models.EventDay
	AccommodationFees []models.AccommodationFee
	DayAttenderFees   []models.DayAttenderFee
}

func ReadSeedFile(path string) (*Reference, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var data SeedData
	if err := v.Unmarshal(&data); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	return data.Reference()
}

// Reference converts and validates the raw seed data.
func (d *SeedData) Reference() (*Reference, error) {
	ref := &Reference{}

	for _, day := range d.EventDays {
		date, err := parseDate(day.Date)
		if err != nil {
			return nil, err
		}
		ed := models.EventDay{Date: date, Label: day.Label}
		if day.PartialDayDiscount != "" {
			discount, err := fees.ParseMoney(day.PartialDayDiscount)
			if err != nil {
				return nil, fmt.Errorf("event day %s: %w", date.Format(time.DateOnly), err)
			}
			ed.PartialDayDiscount = &discount
		}
		ref.EventDays = append(ref.EventDays, ed)
	}

	for _, a := range d.AccommodationFees {
		if a.Name == "" {
			return nil, fmt.Errorf("accommodation fee without a name")
		}
		fullWeek, err := fees.ParseMoney(a.FullWeekFee)
		if err != nil {
			return nil, fmt.Errorf("accommodation %q full week fee: %w", a.Name, err)
		}
		daily, err := fees.ParseMoney(a.DailyFee)
		if err != nil {
			return nil, fmt.Errorf("accommodation %q daily fee: %w", a.Name, err)
		}
		ref.AccommodationFees = append(ref.AccommodationFees, models.AccommodationFee{
			Name:        a.Name,
			FullWeekFee: fullWeek,
			DailyFee:    daily,
			AgeMin:      a.AgeMin,
			AgeMax:      a.AgeMax,
		})
	}

	brackets := make([]fees.Bracket, 0, len(d.DayAttenderFees))
	for _, f := range d.DayAttenderFees {
		daily, err := fees.ParseMoney(f.DailyFee)
		if err != nil {
			return nil, fmt.Errorf("day attender fee %d-%d: %w", f.AgeMin, f.AgeMax, err)
		}
		row := models.DayAttenderFee{AgeMin: f.AgeMin, AgeMax: f.AgeMax, DailyFee: daily}
		ref.DayAttenderFees = append(ref.DayAttenderFees, row)
		brackets = append(brackets, row.Bracket())
	}
	if _, err := fees.NewRateTable(brackets); err != nil {
		return nil, err
	}

	return ref, nil
}

// Seed upserts reference data keyed by event day date, accommodation name
// and day attender age range, and removes days and tiers it no longer lists.
func Seed(db *gorm.DB, ref *Reference) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range ref.EventDays {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"label", "partial_day_discount", "updated_at", "deleted_at"}),
			}).Create(&ref.EventDays[i]).Error; err != nil {
				return fmt.Errorf("seed event day: %w", err)
			}
		}

		for i := range ref.AccommodationFees {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"full_week_fee", "daily_fee", "age_min", "age_max", "updated_at", "deleted_at"}),
			}).Create(&ref.AccommodationFees[i]).Error; err != nil {
				return fmt.Errorf("seed accommodation fee: %w", err)
			}
		}

		if err := pruneEventDays(tx, ref.EventDays); err != nil {
			return err
		}
		if err := pruneAccommodationFees(tx, ref.AccommodationFees); err != nil {
			return err
		}

		// The rate table is replaced wholesale so that stale brackets can't
		// overlap the new ones.
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.DayAttenderFee{}).Error; err != nil {
			return fmt.Errorf("clear day attender fees: %w", err)
		}
		if len(ref.DayAttenderFees) > 0 {
			if err := tx.Create(&ref.DayAttenderFees).Error; err != nil {
				return fmt.Errorf("seed day attender fees: %w", err)
			}
		}

		log.Info().
			Int("event_days", len(ref.EventDays)).
			Int("accommodation_fees", len(ref.AccommodationFees)).
			Int("day_attender_fees", len(ref.DayAttenderFees)).
			Msg("Reference data seeded")

		return nil
	})
}

// pruneEventDays removes stored days that are no longer in the seed data so
// they stop counting towards a full week. A day someone still attends is an
// error.
func pruneEventDays(tx *gorm.DB, seeded []models.EventDay) error {
	keep := make(map[string]struct{}, len(seeded))
	for _, d := range seeded {
		keep[d.Date.Format(time.DateOnly)] = struct{}{}
	}

	var stored []models.EventDay
	if err := tx.Find(&stored).Error; err != nil {
		return fmt.Errorf("load event days: %w", err)
	}
	for _, d := range stored {
		if _, ok := keep[d.Date.Format(time.DateOnly)]; ok {
			continue
		}
		var attendees int64
		if err := tx.Table("registrant_event_days").Where("event_day_id = ?", d.ID).Count(&attendees).Error; err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}
		if attendees > 0 {
			return fmt.Errorf("%w: %s has %d registrants", ErrAttendedEventDay, d.Date.Format(time.DateOnly), attendees)
		}
		if err := tx.Delete(&d).Error; err != nil {
			return fmt.Errorf("remove event day: %w", err)
		}
		log.Info().Str("date", d.Date.Format(time.DateOnly)).Msg("Event day removed")
	}
	return nil
}

// pruneAccommodationFees removes tiers missing from the seed data unless a
// registrant still books them.
func pruneAccommodationFees(tx *gorm.DB, seeded []models.AccommodationFee) error {
	keep := make(map[string]struct{}, len(seeded))
	for _, a := range seeded {
		keep[a.Name] = struct{}{}
	}

	var stored []models.AccommodationFee
	if err := tx.Find(&stored).Error; err != nil {
		return fmt.Errorf("load accommodation fees: %w", err)
	}
	for _, a := range stored {
		if _, ok := keep[a.Name]; ok {
			continue
		}
		var bookings int64
		if err := tx.Model(&models.Registrant{}).Where("accommodation_fee_id = ?", a.ID).Count(&bookings).Error; err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if bookings > 0 {
			log.Warn().Str("name", a.Name).Int64("registrants", bookings).Msg("Accommodation missing from seed data is still booked, keeping it")
			continue
		}
		if err := tx.Delete(&a).Error; err != nil {
			return fmt.Errorf("remove accommodation fee: %w", err)
		}
		log.Info().Str("name", a.Name).Msg("Accommodation fee removed")
	}
	return nil
}

func SeedFile(db *gorm.DB, path string) error {
	ref, err := ReadSeedFile(path)
	if err != nil {
		return err
	}
	return Seed(db, ref)
}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return time.Time{}, fmt.Errorf("event day date %q: %w", d, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("event day date %v: expected YYYY-MM-DD", v)
	}
}
