package market

import (
	"testing"

	"housingmarket/internal/repo"
	"housingmarket/internal/worldstate"
)

func TestGenerateYearlyInsertsConfiguredCount(t *testing.T) {
	ctx, repos := newTestContext(t)
	ctx.Config.NewDwellingsPerYear = 25

	s := NewSupplyGenerator()
	n := s.GenerateYearly(ctx, 2024)
	if n != 25 {
		t.Fatalf("GenerateYearly returned %d, want 25", n)
	}
	if repos.Dwellings.Len() != 25 {
		t.Fatalf("dwelling repo has %d entries, want 25", repos.Dwellings.Len())
	}
}

func TestGenerateYearlyDwellingsAreVacantAndUnlisted(t *testing.T) {
	ctx, repos := newTestContext(t)
	ctx.Config.NewDwellingsPerYear = 10

	s := NewSupplyGenerator()
	s.GenerateYearly(ctx, 2024)

	repos.Dwellings.Iter(func(_ repo.ID, d worldstate.Dwelling) bool {
		if !d.Exists {
			t.Fatal("newly-built dwelling must have Exists = true")
		}
		if d.CurrentHousehold != nil {
			t.Fatal("newly-built dwelling must have no owning household")
		}
		if d.ListingDate != nil {
			t.Fatal("newly-built dwelling must have no listing date")
		}
		return true
	})
}

func TestGenerateYearlyValueGrowsAfterBaseYear(t *testing.T) {
	ctx1, repos1 := newTestContext(t)
	ctx1.Config.NewDwellingsPerYear = 1
	NewSupplyGenerator().GenerateYearly(ctx1, 1986)
	var baseValue float32
	repos1.Dwellings.Iter(func(_ repo.ID, d worldstate.Dwelling) bool {
		baseValue = d.Value.Amount
		return true
	})
	if baseValue != 87000 {
		t.Fatalf("value in base year = %v, want 87000", baseValue)
	}

	ctx2, repos2 := newTestContext(t)
	ctx2.Config.NewDwellingsPerYear = 1
	NewSupplyGenerator().GenerateYearly(ctx2, 1996)
	var laterValue float32
	repos2.Dwellings.Iter(func(_ repo.ID, d worldstate.Dwelling) bool {
		laterValue = d.Value.Amount
		return true
	})
	want := float32(87000 + 50000*10)
	if laterValue != want {
		t.Fatalf("value 10 years later = %v, want %v", laterValue, want)
	}
}

func TestDrawDwellingTypeStaysWithinEnum(t *testing.T) {
	ctx, _ := newTestContext(t)
	sub := ctx.RNG.PerYear(2024)
	for i := 0; i < 200; i++ {
		dt := drawDwellingType(sub)
		if int(dt) < 0 || int(dt) >= 5 {
			t.Fatalf("drawDwellingType returned out-of-range type %v", dt)
		}
	}
}
