package ledger_test

import (
	"errors"
	"testing"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/ledger"
	"github.com/shopspring/decimal"
)

func TestAmount(t *testing.T) {
	cases := []struct {
		rate, hours, want string
	}{
		{rate: "20", hours: "3", want: "60"},
		{rate: "12.5", hours: "1.5", want: "18.75"},
		{rate: "0.1", hours: "0.2", want: "0.02"},
		// half-to-even on the third decimal
		{rate: "0.125", hours: "1", want: "0.12"},
		{rate: "0.135", hours: "1", want: "0.14"},
		{rate: "33.33", hours: "0.333", want: "11.1"},
	}

	for _, c := range cases {
		got, err := ledger.Amount(decimal.RequireFromString(c.rate), decimal.RequireFromString(c.hours))
		if err != nil {
			t.Fatalf("%s x %s: unexpected error %v", c.rate, c.hours, err)
		}
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("%s x %s: want %s got %s", c.rate, c.hours, c.want, got)
		}
	}
}

func TestAmount_RejectsNonPositive(t *testing.T) {
	cases := [][2]string{{"0", "1"}, {"-5", "1"}, {"10", "0"}, {"10", "-0.5"}}
	for _, c := range cases {
		_, err := ledger.Amount(decimal.RequireFromString(c[0]), decimal.RequireFromString(c[1]))
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%v: expected ErrValidation, got %v", c, err)
		}
	}
}
