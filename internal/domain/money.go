package domain

import (
	"errors"
	"math"
)

// minorUnitsPerMajor is the multiplier for two-decimal currencies.
const minorUnitsPerMajor = 100

// Money is an amount in minor units (cents) with its currency code.
type Money struct {
	Cents    int64
	Currency string
}

func NewMoney(cents int64, currency string) (Money, error) {
	if cents < 0 {
		return Money{}, errors.New("amount cannot be negative")
	}
	if currency == "" {
		return Money{}, errors.New("currency is required")
	}
	return Money{Cents: cents, Currency: currency}, nil
}

// MoneyFromMajor converts a major-unit amount (e.g. 19.99) into minor units.
// Rounds to the nearest cent so Major reproduces the original two-decimal
// value exactly.
func MoneyFromMajor(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, errors.New("amount cannot be negative")
	}
	if currency == "" {
		return Money{}, errors.New("currency is required")
	}
	return Money{
		Cents:    int64(math.Round(amount * minorUnitsPerMajor)),
		Currency: currency,
	}, nil
}

// Major converts the amount back to major units.
func (m Money) Major() float64 {
	return float64(m.Cents) / minorUnitsPerMajor
}
