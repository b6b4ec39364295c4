package market

import (
	"math"

	"housingmarket/internal/simctx"
	"housingmarket/internal/simerr"
	"housingmarket/internal/worldstate"
)

const minPurchasingPower = 10000

// Bidder derives a household's willingness to pay for a specific dwelling
// given its asking price.
type Bidder struct{}

// NewBidder builds a Bidder. It carries no state of its own; every input
// comes from the context and arguments passed to GetPrice.
func NewBidder() *Bidder { return &Bidder{} }

// GetPrice computes buyer's bid for seller at the given asking price.
// MissingZoneData for the seller's zone is fatal here — per the error
// propagation policy, a bid formed without land-use context is unsafe to
// act on.
func (b *Bidder) GetPrice(ctx *simctx.Context, buyer worldstate.Household, seller worldstate.Dwelling, askingPrice float64) (float64, error) {
	income := b.income(ctx, buyer)
	if income < minPurchasingPower {
		income = minPurchasingPower
	}
	savings := b.savings(ctx, buyer)
	purchasingPower := math.Max(income, savings)

	deltaRooms := float64(seller.Rooms)
	if buyer.DwellingID != nil {
		if currentDwelling, ok := ctx.Repos.Dwellings.TryGet(*buyer.DwellingID); ok {
			deltaRooms = float64(seller.Rooms - currentDwelling.Rooms)
		}
	}

	if ctx.Zones == nil || !ctx.Zones.HasLandUse(seller.Zone) {
		return 0, simerr.New("market.Bidder", ctx.Now.Year, ctx.Now.Month, simerr.MissingZoneData, nil)
	}
	lu := ctx.Zones.LandUse(seller.Zone)

	openBonus := 0.0
	if lu.Open > 0 {
		openBonus = 5000 * math.Log(lu.Open)
	}
	industrialPenalty := 0.0
	if lu.Industrial > 0 {
		industrialPenalty = 8000 * math.Log(lu.Industrial)
	}

	baseBid := 4 * purchasingPower
	spaceValue := 10000 * deltaRooms

	bid := math.Min(askingPrice*0.97, baseBid+spaceValue+openBonus-industrialPenalty)
	bid = math.Max(bid, purchasingPower)
	return bid, nil
}

func (b *Bidder) income(ctx *simctx.Context, h worldstate.Household) float64 {
	total := 0.0
	for _, famID := range h.FamilyIDs {
		fam, ok := ctx.Repos.Families.TryGet(famID)
		if !ok {
			continue
		}
		for _, personID := range fam.PersonIDs {
			person, ok := ctx.Repos.Persons.TryGet(personID)
			if !ok {
				continue
			}
			for _, job := range person.Jobs {
				converted, err := ctx.Currency.Convert(job.Salary, ctx.Now)
				if err != nil {
					continue
				}
				total += float64(converted.Amount)
			}
		}
	}
	return total
}

func (b *Bidder) savings(ctx *simctx.Context, h worldstate.Household) float64 {
	total := 0.0
	for _, famID := range h.FamilyIDs {
		if fam, ok := ctx.Repos.Families.TryGet(famID); ok {
			total += fam.LiquidAssets
		}
	}
	return total
}
