package money

import (
	"math"
	"testing"

	"housingmarket/internal/simerr"
)

func TestConvertPassthroughWithoutRates(t *testing.T) {
	c := NewConverter()
	m := New(100, Date{Year: 2020, Month: 0})
	got, err := c.Convert(m, Date{Year: 2021, Month: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Amount != 100 {
		t.Fatalf("want amount unchanged, got %v", got.Amount)
	}
	if got.WhenCreated != (Date{Year: 2021, Month: 5}) {
		t.Fatalf("want restamped date, got %v", got.WhenCreated)
	}
}

func TestConvertScalesByRateRatio(t *testing.T) {
	c := NewConverter()
	from := Date{Year: 2020, Month: 0}
	to := Date{Year: 2020, Month: 6}
	c.SetRate(from.MonthsSinceEpoch(), 1.0)
	c.SetRate(to.MonthsSinceEpoch(), 1.1)

	m := New(100, from)
	got, err := c.Convert(m, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(got.Amount)-110) > 1e-6 {
		t.Fatalf("want 110, got %v", got.Amount)
	}
}

func TestConvertMissingRateIsTypedError(t *testing.T) {
	c := NewConverter()
	from := Date{Year: 2020, Month: 0}
	to := Date{Year: 2020, Month: 6}
	c.SetRate(from.MonthsSinceEpoch(), 1.0)
	// to's rate is never set -> zero value -> MissingRate.

	_, err := c.Convert(New(100, from), to)
	if err == nil {
		t.Fatal("expected MissingRate error")
	}
	var simErr *simerr.Error
	if !asSimErr(err, &simErr) {
		t.Fatalf("expected *simerr.Error, got %T", err)
	}
	if simErr.Kind != simerr.MissingRate {
		t.Fatalf("want MissingRate, got %v", simErr.Kind)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	c := NewConverter()
	from := Date{Year: 2019, Month: 3}
	to := Date{Year: 2021, Month: 9}
	c.SetRate(from.MonthsSinceEpoch(), 1.2)
	c.SetRate(to.MonthsSinceEpoch(), 1.5)

	m := New(250, from)
	forward, err := c.Convert(m, to)
	if err != nil {
		t.Fatalf("forward convert: %v", err)
	}
	back, err := c.Convert(forward, from)
	if err != nil {
		t.Fatalf("back convert: %v", err)
	}
	if math.Abs(float64(back.Amount)-float64(m.Amount)) > 1e-3 {
		t.Fatalf("round trip mismatch: got %v want %v", back.Amount, m.Amount)
	}
}

func asSimErr(err error, target **simerr.Error) bool {
	se, ok := err.(*simerr.Error)
	if ok {
		*target = se
	}
	return ok
}
