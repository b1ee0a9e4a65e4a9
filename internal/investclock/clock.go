// Package investclock projects the compounded value of one hour of a person's life.
package investclock

import (
	"math"
	"time"

	"moneyshelf/internal/models"
)

const (
	// DaysPerYear absorbs leap years in the day-level compounding.
	DaysPerYear = 365.25
	// DefaultAge is reported when no birth date is given.
	DefaultAge = 30
)

// Params are the projection constants.
type Params struct {
	TargetAge       int
	AnnualRate      float64
	BaseHourlyValue float64
}

// DefaultParams projects to age 84 at 7% with a base value of 2600 per hour.
func DefaultParams() Params {
	return Params{TargetAge: 84, AnnualRate: 0.07, BaseHourlyValue: 2600}
}

// Result is the calculator output.
type Result struct {
	Age         int     `json:"age"`
	FutureValue float64 `json:"future_value"`
}

// AgeOn returns the age in whole years at ref. A Feb 29 birthday is
// reached on Feb 28 in common years.
func AgeOn(birth, ref time.Time) int {
	ref = dateOf(ref)
	age := ref.Year() - birth.Year()
	if ref.Before(birthdayIn(birth, ref.Year())) {
		age--
	}
	return age
}

// FutureHourlyValue compounds the base hourly value from ref to the target age,
// first over whole remaining years and then daily over the rest of the current
// year of life. The result is rounded to 2 decimals.
func FutureHourlyValue(birth, ref time.Time, p Params) float64 {
	birth, ref = dateOf(birth), dateOf(ref)

	remainingYears := float64(p.TargetAge - AgeOn(birth, ref) - 1)

	sinceBirthday := ref.Sub(birthdayIn(birth, ref.Year())).Hours() / 24
	remainingDays := DaysPerYear - floorMod(math.Round(sinceBirthday), DaysPerYear)

	perSecond := p.BaseHourlyValue / 3600
	v := perSecond * math.Pow(1+p.AnnualRate, remainingYears)

	daily := math.Pow(1+p.AnnualRate, 1/DaysPerYear) - 1
	v *= math.Pow(1+daily, remainingDays)

	return round2(v * 3600)
}

// Calculate returns the age and projected hourly value. With no birth date
// the age is DefaultAge and the value is the undiscounted base.
func Calculate(birth *time.Time, ref time.Time, p Params) (Result, error) {
	if birth == nil {
		return Result{Age: DefaultAge, FutureValue: round2(p.BaseHourlyValue / 3600 * 3600)}, nil
	}
	if dateOf(*birth).After(dateOf(ref)) {
		return Result{}, models.NewValidationError("birthday must not be in the future")
	}
	return Result{
		Age:         AgeOn(*birth, ref),
		FutureValue: FutureHourlyValue(*birth, ref, p),
	}, nil
}

// birthdayIn is birth's anniversary in year. Feb 29 maps to Feb 28 in common years.
func birthdayIn(birth time.Time, year int) time.Time {
	day := birth.Day()
	if birth.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, birth.Month(), day, 0, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// floorMod is x mod m with the sign of m.
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
