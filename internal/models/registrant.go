package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"gorm.io/gorm"
)

type RegistrantFields struct {
	RegistrationType              fees.AttendanceType `json:"registration_type"`
	FirstName                     string              `json:"first_name"`
	LastName                      string              `json:"last_name"`
	Age                           int                 `json:"age"`
	Email                         *string             `json:"email"`
	NeedsAccessibleAccommodations bool                `json:"needs_accessible_accommodations"`
}

type Registrant struct {
	gorm.Model
	Reference          string            `json:"reference" gorm:"uniqueIndex"`
	RegistrantFields   `gorm:"embedded"`
	DaysAttending      []EventDay        `json:"days_attending" gorm:"many2many:registrant_event_days;"`
	AccommodationFeeID *uint             `json:"accommodation_fee_id"`
	AccommodationFee   *AccommodationFee `json:"accommodation_fee"`
	UserID             *uint             `json:"user_id" gorm:"index"`
	User               *User             `json:"-"`
}

func (r Registrant) FullName() string {
	return fmt.Sprintf("%s %s", r.FirstName, r.LastName)
}

func (r Registrant) OwnedBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}

// Selection expects DaysAttending and AccommodationFee to be preloaded.
func (r Registrant) Selection() fees.Selection {
	sel := fees.Selection{
		Type: r.RegistrationType,
		Age:  r.Age,
		Days: make([]fees.Day, 0, len(r.DaysAttending)),
	}
	for _, d := range r.DaysAttending {
		sel.Days = append(sel.Days, d.FeeDay())
	}
	if r.AccommodationFee != nil {
		sel.Accommodation = r.AccommodationFee.FeeAccommodation()
	}
	return sel
}

func (r Registrant) DayIDs() []uint {
	ids := make([]uint, 0, len(r.DaysAttending))
	for _, d := range r.DaysAttending {
		ids = append(ids, d.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RegistrantHistory is a snapshot of a registrant taken after every save.
type RegistrantHistory struct {
	gorm.Model
	RegistrantID       uint   `json:"registrant_id" gorm:"index"`
	UserID             *uint  `json:"user_id"`
	AccommodationFeeID *uint  `json:"accommodation_fee_id"`
	DayIDs             string `json:"day_ids"`
	RegistrantFields   `gorm:"embedded"`
}

func NewRegistrantHistory(r Registrant) RegistrantHistory {
	return RegistrantHistory{
		RegistrantID:       r.ID,
		UserID:             r.UserID,
		AccommodationFeeID: r.AccommodationFeeID,
		DayIDs:             JoinIDs(r.DayIDs()),
		RegistrantFields:   r.RegistrantFields,
	}
}

func JoinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

func SplitIDs(s string) []uint {
	ids := []uint{}
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}
