package market

import (
	"housingmarket/internal/money"
	"housingmarket/internal/rng"
	"housingmarket/internal/simctx"
	"housingmarket/internal/worldstate"
)

// dwellingTypeWeights is the categorical distribution the supply generator
// draws a new dwelling's type from.
var dwellingTypeWeights = []struct {
	Type   worldstate.DwellingType
	Weight float64
}{
	{worldstate.Detached, 0.40},
	{worldstate.SemiDetached, 0.20},
	{worldstate.Attached, 0.20},
	{worldstate.ApartmentLow, 0.15},
	{worldstate.ApartmentHigh, 0.05},
}

// roomRanges is the type-dependent uniform room-count range a newly-built
// dwelling of that type is drawn from.
var roomRanges = map[worldstate.DwellingType][2]int{
	worldstate.Detached:      {3, 6},
	worldstate.SemiDetached:  {2, 5},
	worldstate.Attached:      {2, 4},
	worldstate.ApartmentLow:  {1, 3},
	worldstate.ApartmentHigh: {1, 2},
}

// supplyBaseValue and supplyAnnualGrowth implement spec.md's initial-value
// formula: 87000 + 50000 * max(0, year - 1986).
const (
	supplyBaseValue    = 87000
	supplyAnnualGrowth = 50000
	supplyBaseYear     = 1986
	supplyNumZones     = 5
)

// SupplyGenerator draws NewDwellingsPerYear dwellings once a year, before
// the first monthly clear, and inserts them into the dwelling repository.
type SupplyGenerator struct{}

// NewSupplyGenerator builds a SupplyGenerator. It carries no state: every
// draw is reproducible purely from the RNG substream handed in for the
// year.
func NewSupplyGenerator() *SupplyGenerator { return &SupplyGenerator{} }

// GenerateYearly draws ctx.Config.NewDwellingsPerYear dwellings for year
// and inserts them into ctx.Repos.Dwellings, returning the count inserted.
func (s *SupplyGenerator) GenerateYearly(ctx *simctx.Context, year int) int {
	sub := ctx.RNG.PerYear(year)
	n := ctx.Config.NewDwellingsPerYear
	value := float64(supplyBaseValue)
	if year > supplyBaseYear {
		value += float64(supplyAnnualGrowth * (year - supplyBaseYear))
	}

	for i := 0; i < n; i++ {
		dwellingType := drawDwellingType(sub)
		rr := roomRanges[dwellingType]
		rooms := rr[0]
		if rr[1] > rr[0] {
			rooms += sub.Intn(rr[1] - rr[0] + 1)
		}
		sqft := uniform(sub, float64(rooms*200), float64(rooms*400))
		zone := sub.Intn(supplyNumZones)

		d := worldstate.Dwelling{
			Exists:        true,
			Type:          dwellingType,
			Rooms:         rooms,
			SquareFootage: sqft,
			Zone:          zone,
			Value:         money.New(float32(value), money.Date{Year: year, Month: 0}),
		}
		ctx.Repos.Dwellings.AddNew(d)
	}
	return n
}

func drawDwellingType(sub *rng.Substream) worldstate.DwellingType {
	r := sub.Float64()
	cum := 0.0
	for _, w := range dwellingTypeWeights {
		cum += w.Weight
		if r < cum {
			return w.Type
		}
	}
	return dwellingTypeWeights[len(dwellingTypeWeights)-1].Type
}

func uniform(sub *rng.Substream, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + sub.Float64()*(hi-lo)
}
