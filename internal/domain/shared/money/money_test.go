package money

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	m, err := New(1500, "usd")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Currency != "USD" {
		t.Fatalf("currency not normalized: %q", m.Currency)
	}
	if _, err := New(100, "dollars"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestArithmetic(t *testing.T) {
	a := Must(3000, "USD")
	b := Must(1250, "USD")

	sum, err := a.Add(b)
	if err != nil || sum.Amount != 4250 {
		t.Fatalf("Add() = %v, %v", sum, err)
	}
	diff, err := a.Sub(b)
	if err != nil || diff.Amount != 1750 {
		t.Fatalf("Sub() = %v, %v", diff, err)
	}
	if got := a.Multiply(3); got.Amount != 9000 {
		t.Fatalf("Multiply() = %d, want 9000", got.Amount)
	}

	if _, err := a.Add(Must(100, "EUR")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestSubChecked(t *testing.T) {
	a := Must(1000, "USD")
	if _, err := a.SubChecked(Must(1001, "USD")); !errors.Is(err, ErrNegativeResult) {
		t.Fatalf("expected ErrNegativeResult, got %v", err)
	}
	res, err := a.SubChecked(Must(1000, "USD"))
	if err != nil || res.Amount != 0 {
		t.Fatalf("SubChecked() = %v, %v", res, err)
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{Must(9000, "USD"), "90.00 USD"},
		{Must(1505, "EUR"), "15.05 EUR"},
		{Money{Amount: -250, Currency: "USD"}, "-2.50 USD"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
