package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

// The rounding rule is half away from zero, per line. Stored totals depend
// on it, so these cases are pinned.
func TestLineAmountCentsRounding(t *testing.T) {
	cases := []struct {
		quantity       string
		unitPriceCents int64
		want           int64
	}{
		{"1", 50000, 50000},
		{"0.5", 50000, 25000},
		{"0.5", 101, 51},     // 50.5 rounds up
		{"0.25", 102, 26},    // 25.5 rounds up
		{"0.333", 1000, 333}, // 333.0 exact
		{"0.3335", 1000, 334},
		{"2.5", 1, 3}, // 2.5 rounds away from zero
		{"0.0001", 100, 0},
	}
	for _, tc := range cases {
		got := LineAmountCents(dec(t, tc.quantity), tc.unitPriceCents)
		if got != tc.want {
			t.Errorf("LineAmountCents(%s, %d) = %d, want %d", tc.quantity, tc.unitPriceCents, got, tc.want)
		}
	}
}

func TestComputeTotals(t *testing.T) {
	lines := []EntryLine{
		{Quantity: dec(t, "1"), UnitPriceCents: 50000},
		{Quantity: dec(t, "0.5"), UnitPriceCents: 50000},
		{Quantity: dec(t, "0.5"), UnitPriceCents: 101},
	}
	totalDays, totalAmountCents := ComputeTotals(lines)

	if !totalDays.Equal(dec(t, "2")) {
		t.Errorf("totalDays = %s, want 2", totalDays)
	}
	// rounding happens per line, not on the sum
	if totalAmountCents != 50000+25000+51 {
		t.Errorf("totalAmountCents = %d, want %d", totalAmountCents, 50000+25000+51)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	totalDays, totalAmountCents := ComputeTotals(nil)
	if !totalDays.IsZero() || totalAmountCents != 0 {
		t.Errorf("empty totals = (%s, %d), want (0, 0)", totalDays, totalAmountCents)
	}
}
