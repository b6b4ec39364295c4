package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"housingmarket/internal/config"
	"housingmarket/internal/logger"
	"housingmarket/internal/money"
	"housingmarket/internal/repo"
	"housingmarket/internal/sim"
	"housingmarket/internal/simctx"
	"housingmarket/internal/store"
	"housingmarket/internal/worlddata"
	"housingmarket/internal/worldstate"
)

var version = "dev"

// loadDotEnv loads a local .env file so double-clicked/packaged binaries
// pick up overrides without a shell, mirroring the teacher's loadDotEnv:
// existing OS env vars are never overridden, and a missing file is a no-op.
func loadDotEnv() {
	paths := []string{".env"}
	if exePath, err := os.Executable(); err == nil {
		if exeDir := filepath.Dir(exePath); exeDir != "" {
			paths = append(paths, filepath.Join(exeDir, ".env"))
		}
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			l := strings.TrimSpace(line)
			if l == "" || strings.HasPrefix(l, "#") {
				continue
			}
			parts := strings.SplitN(l, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key, val := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			if key == "" {
				continue
			}
			if os.Getenv(key) == "" {
				os.Setenv(key, val)
			}
		}
	}
}

func main() {
	loadDotEnv()

	dbPath := flag.String("db", "housingsim.db", "path to the sale-record SQLite ledger")
	configPath := flag.String("config", "", "path to a JSON config override file (optional)")
	startYear := flag.Int("start-year", 2020, "first simulated year")
	years := flag.Int("years", 10, "number of years to simulate")
	households := flag.Int("households", 500, "number of households to seed the population with")
	flag.Parse()

	logger.Banner(version)

	cfg := config.Default()
	if *configPath != "" {
		if err := cfg.LoadOverrides(*configPath); err != nil {
			logger.Error("CONFIG", fmt.Sprintf("%v", err))
			os.Exit(1)
		}
	}

	ledger, err := store.Open(*dbPath)
	if err != nil {
		logger.Error("STORE", fmt.Sprintf("failed to open ledger: %v", err))
		os.Exit(1)
	}
	defer ledger.Close()

	repos := worldstate.NewRepositories()
	zones := worlddata.NewZoneTables(worldstate.NewZoneSystem([]int{0, 1, 2, 3, 4}), seedLandUse(), seedDistSubway(), seedDistRegional())
	currency := money.NewConverter()

	seedPopulation(repos, *households, money.Date{Year: *startYear, Month: 0})

	runID := uuid.NewString()
	ctx := simctx.New(cfg, repos, zones, currency, ledger, runID)
	logger.Info("SCHEDULER", fmt.Sprintf("run %s: %d households, %d years starting %d", runID, *households, *years, *startYear))

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("SCHEDULER", "shutdown requested; will stop at the next monthly boundary")
		close(stop)
	}()

	scheduler := sim.New()
	if err := scheduler.Run(ctx, *startYear, *years, stop); err != nil {
		logger.Error("SCHEDULER", fmt.Sprintf("run failed: %v", err))
		os.Exit(1)
	}

	logger.Success("SCHEDULER", "run complete")
}

// seedLandUse gives each of the five demo zones a plausible land-use mix,
// shading from dense/commercial (zone 0) to open/industrial fringe (zone 4).
func seedLandUse() map[int]worldstate.LandUse {
	return map[int]worldstate.LandUse{
		0: {Residential: 0.55, Commercial: 0.35, Open: 0.05, Industrial: 0.05},
		1: {Residential: 0.65, Commercial: 0.20, Open: 0.10, Industrial: 0.05},
		2: {Residential: 0.60, Commercial: 0.10, Open: 0.20, Industrial: 0.10},
		3: {Residential: 0.45, Commercial: 0.05, Open: 0.25, Industrial: 0.25},
		4: {Residential: 0.30, Commercial: 0.05, Open: 0.15, Industrial: 0.50},
	}
}

// seedDistSubway and seedDistRegional give each zone a fixed distance-to-
// transit scalar (component FloatData); zone 0 is the urban core.
func seedDistSubway() map[int]worldstate.FloatData {
	return map[int]worldstate.FloatData{0: 0.5, 1: 1.5, 2: 3.0, 3: 5.0, 4: 8.0}
}

func seedDistRegional() map[int]worldstate.FloatData {
	return map[int]worldstate.FloatData{0: 2.0, 1: 3.0, 2: 4.0, 3: 6.0, 4: 9.0}
}

// seedPopulation builds a minimal starting population of owner-occupier
// households, each with one family, one employed adult, and one dwelling,
// distributed evenly across the five seeded zones. Demographic loaders
// (CSV/DB ingestion) are out of the core's scope; this is a self-contained
// bootstrap so the binary is runnable standalone.
func seedPopulation(repos *worldstate.Repositories, households int, start money.Date) {
	dwellingTypes := []worldstate.DwellingType{
		worldstate.Detached, worldstate.SemiDetached, worldstate.Attached,
		worldstate.ApartmentLow, worldstate.ApartmentHigh,
	}
	for i := 0; i < households; i++ {
		zone := i % 5
		rooms := 2 + i%4
		dwellingType := dwellingTypes[i%len(dwellingTypes)]

		dwellingID := repos.Dwellings.AddNew(worldstate.Dwelling{
			Exists:        true,
			Type:          dwellingType,
			Rooms:         rooms,
			SquareFootage: float64(rooms) * 300,
			Zone:          zone,
			Value:         money.New(float32(150000+50000*rooms), start),
		})

		personID := repos.Persons.AddNew(worldstate.Person{
			Age:               30 + i%35,
			Sex:               worldstate.Sex(i % 2),
			Living:            true,
			LabourForceStatus: worldstate.Employed,
			Jobs: []worldstate.Job{{
				StartDate: start,
				Salary:    money.New(float32(40000+1000*(i%20)), start),
			}},
		})

		familyID := repos.Families.AddNew(worldstate.Family{
			PersonIDs:    []repo.ID{personID},
			LiquidAssets: float64(10000 + 500*(i%40)),
		})

		householdID := repos.Households.AddNew(worldstate.Household{
			FamilyIDs:  []repo.ID{familyID},
			Tenure:     worldstate.Own,
			DwellingID: &dwellingID,
		})

		person := repos.Persons.Get(personID)
		person.FamilyID = familyID
		for j := range person.Jobs {
			person.Jobs[j].Owner = personID
		}
		repos.Persons.Set(personID, person)

		family := repos.Families.Get(familyID)
		family.HouseholdID = householdID
		repos.Families.Set(familyID, family)

		dwelling := repos.Dwellings.Get(dwellingID)
		dwelling.CurrentHousehold = &householdID
		repos.Dwellings.Set(dwellingID, dwelling)
	}
}
