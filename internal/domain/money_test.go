package domain_test

import (
	"fmt"
	"testing"

	"github.com/shopsphere/payments-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFromMajor(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		currency  string
		wantCents int64
		wantErr   bool
	}{
		{name: "whole amount", amount: 20, currency: "usd", wantCents: 2000},
		{name: "two decimals", amount: 19.99, currency: "usd", wantCents: 1999},
		{name: "zero", amount: 0, currency: "usd", wantCents: 0},
		{name: "single cent", amount: 0.01, currency: "usd", wantCents: 1},
		{name: "float noise rounds to nearest cent", amount: 0.29, currency: "usd", wantCents: 29},
		{name: "negative rejected", amount: -1.50, currency: "usd", wantErr: true},
		{name: "missing currency rejected", amount: 5, currency: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := domain.MoneyFromMajor(tt.amount, tt.currency)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCents, m.Cents)
			assert.Equal(t, tt.currency, m.Currency)
		})
	}
}

// Round-tripping any non-negative amount with up to two decimal places must
// reproduce the original value exactly.
func TestMoney_RoundTrip(t *testing.T) {
	for cents := int64(0); cents <= 100_000; cents++ {
		major := float64(cents) / 100

		m, err := domain.MoneyFromMajor(major, "usd")
		require.NoError(t, err)
		require.Equal(t, cents, m.Cents, fmt.Sprintf("major %v", major))
		require.Equal(t, major, m.Major())
	}
}

func TestNewMoney_RejectsNegative(t *testing.T) {
	_, err := domain.NewMoney(-1, "usd")
	assert.Error(t, err)
}
