package market

import (
	"math"
	"sync"

	"housingmarket/internal/repo"
	"housingmarket/internal/rng"
	"housingmarket/internal/simctx"
	"housingmarket/internal/worldstate"
)

// headAgeNoiseStdDev and yearsInDwellNoiseStdDev are the standard-deviation
// terms the logit utility multiplies a standard-normal draw by before
// weighting HeadAge and YearsInDwell — the "where indicated" noise spec.md
// describes for continuous covariates, calibrated so the noise is a minor
// perturbation relative to the covariate's typical range.
const (
	headAgeNoiseStdDev      = 2.0
	yearsInDwellNoiseStdDev = 0.5
)

// Participation decides, once a month, which owner-occupier households opt
// into the market as buyers, and tracks each household's running demand
// counter (job gains/losses, births) across months so "demanding a larger
// dwelling" reflects accumulated pressure rather than a single month's
// draw.
type Participation struct {
	demand map[repo.ID]int
}

// NewParticipation builds an empty Participation model.
func NewParticipation() *Participation {
	return &Participation{demand: make(map[repo.ID]int)}
}

// ownerRecord is a snapshot of one owner-occupier household considered for
// opt-in this month, gathered serially before the parallel fan-out below.
type ownerRecord struct {
	id repo.ID
	h  worldstate.Household
}

// MonthlyTick returns the buyers opting in this month plus the dwellings
// that are unconditionally enqueued as sellers: every dwelling owned by a
// household but not that household's current active dwelling (design
// note: secondary/vacant owned units sell with no participation test).
//
// Buyer opt-in runs in parallel across owner households (phase i of the
// concurrency model), mirroring buildChoiceSets' own worker fan-out: each
// household's substream is derived serially, in iteration order, before
// the parallel pass, so the sequence of draws is independent of goroutine
// scheduling.
func (p *Participation) MonthlyTick(ctx *simctx.Context) (buyers []BuyerEntry, autoSellers []repo.ID) {
	coef := ctx.Config.ParticipationCoefficients
	monthRoot := ctx.RNG.PerMonth(ctx.Now.Year, ctx.Now.Month)

	var owners []ownerRecord
	ctx.Repos.Households.Iter(func(id repo.ID, h worldstate.Household) bool {
		if h.Tenure == worldstate.Own && h.DwellingID != nil {
			owners = append(owners, ownerRecord{id: id, h: h})
		}
		return true
	})

	substreams := make([]*rng.Substream, len(owners))
	for i := range owners {
		substreams[i] = monthRoot.Child()
	}

	var mu sync.Mutex
	parallelFor(len(owners), func(i int) {
		id, h := owners[i].id, owners[i].h
		sub := substreams[i]

		jobInc := sub.Bool(0.01)
		jobDec := sub.Bool(0.01)
		retire := sub.Bool(0.01)
		jobChg := sub.Bool(0.01)
		newChild := p.hasNewChild(ctx, h)
		headAge := p.headAge(ctx, h)
		numJobs := p.numJobs(ctx, h)
		yearsInDwelling := p.yearsInDwelling(ctx, h)

		u := -0.084
		if jobInc {
			u += coef.JobInc
		}
		if jobDec {
			u += coef.JobDec
		}
		if retire {
			u += coef.Retire
		}
		if jobChg {
			u += coef.JobChg
		}
		if newChild {
			u += coef.Child
		}
		u += coef.HeadAge * (float64(headAge) + sub.NormFloat64()*headAgeNoiseStdDev)
		u += coef.ChangeBIR * 0 // changeInBIR: spec treats as 0 absent a birth-rate-change collaborator
		u += coef.YearsInDwell * (yearsInDwelling + sub.NormFloat64()*yearsInDwellNoiseStdDev)
		u += coef.NumJobs * float64(numJobs)
		u += coef.NonMover * ctx.Config.NonMoverRatio
		u += coef.LFP * ctx.Config.LabourForceParticipation

		prob := 0.5 * logistic(u)
		if sub.Float64() > prob {
			return
		}

		mu.Lock()
		counter := p.demand[id]
		if jobInc {
			counter++
		}
		if newChild {
			counter++
		}
		if jobDec {
			counter--
		}
		p.demand[id] = counter

		buyers = append(buyers, BuyerEntry{
			HouseholdID:      id,
			Persons:          h.ContainedPersons(ctx.Repos.Families),
			DemandsMoreSpace: counter > 0,
		})
		mu.Unlock()
	})

	ctx.Repos.Dwellings.Iter(func(did repo.ID, d worldstate.Dwelling) bool {
		if !d.Exists || d.CurrentHousehold == nil {
			return true
		}
		owner, ok := ctx.Repos.Households.TryGet(*d.CurrentHousehold)
		if !ok {
			return true
		}
		if owner.DwellingID == nil || *owner.DwellingID != did {
			autoSellers = append(autoSellers, did)
		}
		return true
	})

	return buyers, autoSellers
}

func (p *Participation) hasNewChild(ctx *simctx.Context, h worldstate.Household) bool {
	for _, famID := range h.FamilyIDs {
		fam, ok := ctx.Repos.Families.TryGet(famID)
		if !ok {
			continue
		}
		for _, personID := range fam.PersonIDs {
			if person, ok := ctx.Repos.Persons.TryGet(personID); ok && person.Age <= 0 {
				return true
			}
		}
	}
	return false
}

// headAge is the maximum person age across every non-empty family in the
// household, or 0 if the household has no persons at all.
func (p *Participation) headAge(ctx *simctx.Context, h worldstate.Household) int {
	max := 0
	for _, famID := range h.FamilyIDs {
		fam, ok := ctx.Repos.Families.TryGet(famID)
		if !ok || len(fam.PersonIDs) == 0 {
			continue
		}
		for _, personID := range fam.PersonIDs {
			if person, ok := ctx.Repos.Persons.TryGet(personID); ok && person.Age > max {
				max = person.Age
			}
		}
	}
	return max
}

func (p *Participation) numJobs(ctx *simctx.Context, h worldstate.Household) int {
	count := 0
	for _, famID := range h.FamilyIDs {
		fam, ok := ctx.Repos.Families.TryGet(famID)
		if !ok {
			continue
		}
		for _, personID := range fam.PersonIDs {
			if person, ok := ctx.Repos.Persons.TryGet(personID); ok && person.HasJob() {
				count++
			}
		}
	}
	return count
}

func (p *Participation) yearsInDwelling(ctx *simctx.Context, h worldstate.Household) float64 {
	if h.DwellingID == nil {
		return 0
	}
	d, ok := ctx.Repos.Dwellings.TryGet(*h.DwellingID)
	if !ok {
		return 0
	}
	return float64(ctx.Now.MonthsBetween(d.Value.WhenCreated)) / 12.0
}

// DemandCounter exposes a household's current running demand counter
// (tests and diagnostics only).
func (p *Participation) DemandCounter(id repo.ID) int {
	return p.demand[id]
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
