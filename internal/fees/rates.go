package fees

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNoRateBracket    = errors.New("no day attender rate bracket for age")
	ErrInvalidRateTable = errors.New("invalid day attender rate table")
)

// Bracket is one row of the day attender rate table. Both age bounds are
// inclusive.
type Bracket struct {
	AgeMin   int
	AgeMax   int
	DailyFee Money
}

func (b Bracket) Contains(age int) bool {
	return age >= b.AgeMin && age <= b.AgeMax
}

// RateTable holds day attender brackets ordered by age. The brackets start
// at age 0 and leave no gaps, so any age up to the last bracket's maximum
// resolves to exactly one bracket.
type RateTable struct {
	brackets []Bracket
}

func NewRateTable(brackets []Bracket) (*RateTable, error) {
	if len(brackets) == 0 {
		return nil, fmt.Errorf("%w: no brackets defined", ErrInvalidRateTable)
	}

	sorted := make([]Bracket, len(brackets))
	copy(sorted, brackets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AgeMin < sorted[j].AgeMin
	})

	for i, b := range sorted {
		if b.AgeMin < 0 {
			return nil, fmt.Errorf("%w: bracket %d-%d has a negative age", ErrInvalidRateTable, b.AgeMin, b.AgeMax)
		}
		if b.AgeMin > b.AgeMax {
			return nil, fmt.Errorf("%w: bracket %d-%d has min above max", ErrInvalidRateTable, b.AgeMin, b.AgeMax)
		}
		if b.DailyFee < 0 {
			return nil, fmt.Errorf("%w: bracket %d-%d has a negative fee", ErrInvalidRateTable, b.AgeMin, b.AgeMax)
		}
		if i == 0 {
			if b.AgeMin != 0 {
				return nil, fmt.Errorf("%w: first bracket starts at age %d, not 0", ErrInvalidRateTable, b.AgeMin)
			}
			continue
		}

		prev := sorted[i-1]
		switch {
		case b.AgeMin <= prev.AgeMax:
			return nil, fmt.Errorf("%w: brackets %d-%d and %d-%d overlap", ErrInvalidRateTable, prev.AgeMin, prev.AgeMax, b.AgeMin, b.AgeMax)
		case b.AgeMin > prev.AgeMax+1:
			return nil, fmt.Errorf("%w: no bracket covers ages %d-%d", ErrInvalidRateTable, prev.AgeMax+1, b.AgeMin-1)
		}
	}

	return &RateTable{brackets: sorted}, nil
}

func (t *RateTable) Lookup(age int) (Bracket, error) {
	i := sort.Search(len(t.brackets), func(i int) bool {
		return t.brackets[i].AgeMax >= age
	})
	if i < len(t.brackets) && t.brackets[i].Contains(age) {
		return t.brackets[i], nil
	}
	return Bracket{}, fmt.Errorf("%w %d", ErrNoRateBracket, age)
}

func (t *RateTable) Brackets() []Bracket {
	out := make([]Bracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// MaxAge is the oldest age the table covers.
func (t *RateTable) MaxAge() int {
	return t.brackets[len(t.brackets)-1].AgeMax
}
