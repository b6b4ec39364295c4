package money

import "housingmarket/internal/simerr"

// Converter scales Money amounts between creation dates using a monthly
// inflation index. It holds one rate per absolute month number; an empty
// rate table (no configured data at all) means "pass amounts through
// unchanged", per the spec's fallback for an unconfigured inflation series.
type Converter struct {
	rates map[int]float64
}

// NewConverter builds a Converter with no configured rates; Convert will
// pass amounts through unchanged until rates are added.
func NewConverter() *Converter {
	return &Converter{rates: make(map[int]float64)}
}

// SetRate installs the inflation rate for the given absolute month number.
func (c *Converter) SetRate(monthsSinceEpoch int, rate float64) {
	c.rates[monthsSinceEpoch] = rate
}

func (c *Converter) rate(d Date) (float64, bool) {
	r, ok := c.rates[d.MonthsSinceEpoch()]
	return r, ok
}

// Convert rescales m to the value it would have on date `to`. When no
// inflation series has been configured at all, the amount passes through
// unchanged and is simply restamped with `to`. When a series has been
// configured but either endpoint's rate is zero or missing, Convert returns
// simerr.MissingRate — the two rates are the only legal basis for comparing
// Money across dates, so a missing one cannot be silently defaulted to 1.
func (c *Converter) Convert(m Money, to Date) (Money, error) {
	if len(c.rates) == 0 {
		return Money{Amount: m.Amount, WhenCreated: to}, nil
	}
	fromRate, fromOK := c.rate(m.WhenCreated)
	toRate, toOK := c.rate(to)
	if !fromOK || !toOK || fromRate == 0 || toRate == 0 {
		return Money{}, simerr.New("money.Converter", to.Year, to.Month, simerr.MissingRate, nil)
	}
	newAmount := float64(m.Amount) * toRate / fromRate
	return Money{Amount: float32(newAmount), WhenCreated: to}, nil
}
