package notifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
)

type Event struct {
	User       models.User
	Registrant models.Registrant
	Fee        fees.Money
	Updated    bool
}

type Notifier interface {
	NotifyRegistrant(event Event) error
}

// Multi sends every event to all of its notifiers and joins their errors.
type Multi []Notifier

func (m Multi) NotifyRegistrant(event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyRegistrant(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func registrationTypeLabel(t fees.AttendanceType) string {
	switch t {
	case fees.OvernightAttender:
		return "Overnight attender"
	case fees.DayAttender:
		return "Day attender"
	case fees.MemorialsOnly:
		return "Meeting for Memorials only"
	}
	return string(t)
}

func daysLabel(days []models.EventDay) string {
	if len(days) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(days))
	for _, d := range days {
		if d.Label != "" {
			labels = append(labels, d.Label)
			continue
		}
		labels = append(labels, d.Date.Format("2006-01-02"))
	}
	return strings.Join(labels, ", ")
}

func accommodationLabel(r models.Registrant) string {
	if r.AccommodationFee == nil {
		return "none"
	}
	return r.AccommodationFee.Name
}

// Summary is the plain text description shared by all notifiers.
func Summary(event Event) string {
	r := event.Registrant
	accessible := "no"
	if r.NeedsAccessibleAccommodations {
		accessible = "yes"
	}
	return fmt.Sprintf("Name: %s\nType: %s\nAge: %d\nDays: %s\nAccommodation: %s\nAccessible accommodations: %s\nFee: %s\nReference: %s",
		r.FullName(),
		registrationTypeLabel(r.RegistrationType),
		r.Age,
		daysLabel(r.DaysAttending),
		accommodationLabel(r),
		accessible,
		event.Fee,
		r.Reference,
	)
}
