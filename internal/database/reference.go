package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUnknownEventDay  = errors.New("unknown event day")
	ErrAttendedEventDay = errors.New("event day missing from seed data is still attended")
)

// LoadCalculator builds a fee calculator from the stored day attender rates
// and event days. It fails if the rate table does not validate.
func LoadCalculator(ctx context.Context, db *gorm.DB) (*fees.Calculator, error) {
	var rows []models.DayAttenderFee
	if err := db.WithContext(ctx).Order("age_min asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load day attender fees: %w", err)
	}

	brackets := make([]fees.Bracket, 0, len(rows))
	for _, r := range rows {
		brackets = append(brackets, r.Bracket())
	}
	rates, err := fees.NewRateTable(brackets)
	if err != nil {
		return nil, err
	}

	var totalDays int64
	if err := db.WithContext(ctx).Model(&models.EventDay{}).Count(&totalDays).Error; err != nil {
		return nil, fmt.Errorf("count event days: %w", err)
	}

	return fees.NewCalculator(rates, int(totalDays)), nil
}

func FindEventDays(ctx context.Context, db *gorm.DB, ids []uint) ([]models.EventDay, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var days []models.EventDay
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("date asc").Find(&days).Error; err != nil {
		return nil, err
	}

	if len(days) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w in %v", ErrUnknownEventDay, ids)
	}
	return days, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
