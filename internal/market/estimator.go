package market

import (
	"fmt"
	"math"

	"golang.org/x/sync/singleflight"

	"housingmarket/internal/linalg"
	"housingmarket/internal/logger"
	"housingmarket/internal/repo"
	"housingmarket/internal/simctx"
	"housingmarket/internal/worldstate"
)

// numFeatures is the length of the hedonic feature vector
// x = (1, rooms, squareFootage, distSubway, distRegional, residential, commercial).
const numFeatures = 7

// defaultBeta is the seed coefficient vector used for a dwelling type until
// its first successful refit.
var defaultBeta = [numFeatures]float64{50000, 8000, 60, -1500, -800, 20000, -10000}

// Estimator maintains, per dwelling type, a hedonic coefficient vector
// refit monthly from recent sales, and applies time-on-market decay to
// produce an asking price for any dwelling.
type Estimator struct {
	decay     float64
	beta      [worldstate.NumDwellingTypes][numFeatures]float64
	zoneAvg   map[int]float64
	zoneGroup singleflight.Group
}

// NewEstimator builds an Estimator with every dwelling type seeded to
// defaultBeta.
func NewEstimator(decay float64) *Estimator {
	e := &Estimator{decay: decay, zoneAvg: make(map[int]float64)}
	for t := range e.beta {
		e.beta[t] = defaultBeta
	}
	return e
}

// MonthlyTick refreshes the zone-average value cache and refits each
// dwelling type's coefficients from the last RefitWindowMonths of sales.
// Regression failures are non-fatal: the affected type keeps its previous
// coefficients. At the end of each quarter it logs the coefficient vector
// per type.
func (e *Estimator) MonthlyTick(ctx *simctx.Context) {
	e.refreshZoneAverages(ctx)
	e.refit(ctx)
	if (ctx.Now.Month+1)%3 == 0 {
		for t := 0; t < worldstate.NumDwellingTypes; t++ {
			logger.Info("ESTIMATOR", fmt.Sprintf("%s beta=%v", worldstate.DwellingType(t), e.beta[t]))
		}
	}
}

func (e *Estimator) refreshZoneAverages(ctx *simctx.Context) {
	// Coalesce concurrent recompute requests: callers that request a refresh
	// while one is already running share that run's repository scan instead
	// of each triggering their own. GetPrice does not read this cache.
	result, _, _ := e.zoneGroup.Do("refresh", func() (interface{}, error) {
		sums := make(map[int]float64)
		counts := make(map[int]int)
		ctx.Repos.Dwellings.Iter(func(_ repo.ID, d worldstate.Dwelling) bool {
			if !d.Exists {
				return true
			}
			converted, err := ctx.Currency.Convert(d.Value, ctx.Now)
			if err != nil {
				return true
			}
			sums[d.Zone] += float64(converted.Amount)
			counts[d.Zone]++
			return true
		})
		avg := make(map[int]float64, len(sums))
		for zone, sum := range sums {
			avg[zone] = sum / float64(counts[zone])
		}
		return avg, nil
	})
	e.zoneAvg = result.(map[int]float64)
}

// ZoneAverageValue returns the cached average dwelling value for a zone,
// or 0 if the zone has no dwellings.
func (e *Estimator) ZoneAverageValue(zone int) float64 {
	return e.zoneAvg[zone]
}

func (e *Estimator) refit(ctx *simctx.Context) {
	if ctx.Ledger == nil {
		return // no ledger configured: nothing to refit from, keep previous beta
	}
	window := ctx.Config.RefitWindowMonths
	toMonth := ctx.Now.MonthsSinceEpoch()
	fromMonth := toMonth - window

	for t := 0; t < worldstate.NumDwellingTypes; t++ {
		dwellingType := worldstate.DwellingType(t)
		records, err := ctx.Ledger.RecentByType(dwellingType, fromMonth, toMonth)
		if err != nil || len(records) == 0 {
			continue // empty window: skip, keep previous beta
		}

		xtx := linalg.NewMatrix(numFeatures)
		xty := make([]float64, numFeatures)
		for _, rec := range records {
			x := featureVector(rec.Rooms, rec.SquareFootage, rec.DistSubway, rec.DistRegional, rec.Residential, rec.Commerce)
			xtx.AddOuterProduct(x, 1.0)
			linalg.AddScaledVector(xty, x, rec.Price)
		}
		xtx.AddRidge(linalg.Ridge)

		solved, err := linalg.Solve(xtx, xty)
		if err != nil {
			continue // NotPositiveDefinite: keep previous beta
		}
		var newBeta [numFeatures]float64
		copy(newBeta[:], solved)
		e.beta[t] = newBeta
	}
}

func featureVector(rooms int, sqft, distSubway, distRegional, residential, commercial float64) []float64 {
	return []float64{1, float64(rooms), sqft, distSubway, distRegional, residential, commercial}
}

// GetPrice returns the asking price and minimum bid for a dwelling, given
// its zone's land-use data. The minimum bid is always 0 here; the market
// engine's MinimumPrice field is set by downstream logic.
func (e *Estimator) GetPrice(ctx *simctx.Context, d worldstate.Dwelling) (ask float64, minBid float64) {
	lu := worldstate.LandUse{}
	if ctx.Zones != nil {
		lu = ctx.Zones.LandUse(d.Zone)
	}
	distSubway, distRegional := 0.0, 0.0
	if ctx.Zones != nil {
		distSubway = ctx.Zones.DistSubway(d.Zone)
		distRegional = ctx.Zones.DistRegional(d.Zone)
	}
	x := featureVector(d.Rooms, d.SquareFootage, distSubway, distRegional, lu.Residential, lu.Commercial)
	beta := e.beta[int(d.Type)]

	raw := 0.0
	for i := 0; i < numFeatures; i++ {
		raw += beta[i] * x[i]
	}

	monthsOnMarket := d.MonthsOnMarket(ctx.Now)
	decayFactor := math.Pow(e.decay, float64(monthsOnMarket))
	ask = raw * decayFactor
	return ask, 0
}

// Beta returns a copy of the current coefficient vector for a dwelling
// type (exposed for tests and diagnostics).
func (e *Estimator) Beta(t worldstate.DwellingType) [numFeatures]float64 {
	return e.beta[int(t)]
}
