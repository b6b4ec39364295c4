// Package config holds the housing market core's tunable parameters, with
// sensible defaults and a thin JSON override loader — the same convention
// the teacher repo's own config package uses for its persisted settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParticipationCoefficients is the calibration table the participation
// model's logit utility draws on. Exposed as a configurable struct per the
// design notes' Open Question 1: LabourForceParticipation is a documented,
// overridable input rather than a hardcoded constant.
type ParticipationCoefficients struct {
	JobInc       float64 `json:"job_inc"`
	JobDec       float64 `json:"job_dec"`
	Retire       float64 `json:"retire"`
	JobChg       float64 `json:"job_chg"`
	Child        float64 `json:"child"`
	HeadAge      float64 `json:"head_age"`
	ChangeBIR    float64 `json:"change_bir"`
	YearsInDwell float64 `json:"years_in_dwell"`
	NumJobs      float64 `json:"num_jobs"`
	NonMover     float64 `json:"non_mover"`
	LFP          float64 `json:"lfp"`
}

// DefaultParticipationCoefficients returns the calibration table spec.md
// gives as the seed values for the participation logit.
func DefaultParticipationCoefficients() ParticipationCoefficients {
	return ParticipationCoefficients{
		JobInc:       0.42,
		JobDec:       -0.35,
		Retire:       0.55,
		JobChg:       0.18,
		Child:        0.30,
		HeadAge:      -0.01,
		ChangeBIR:    0.0,
		YearsInDwell: 0.06,
		NumJobs:      0.08,
		NonMover:     -0.90,
		LFP:          0.25,
	}
}

// Config holds every tunable parameter the scheduler, estimator, bidder,
// auction, and supply generator read.
type Config struct {
	// Auction (4.G)
	MaxIterations int `json:"max_iterations"`
	ChoiceSetSize int `json:"choice_set_size"`
	MaxBedrooms   int `json:"max_bedrooms"`

	// Estimator (4.E)
	MonthlyTimeDecay  float64 `json:"monthly_time_decay"`
	RefitWindowMonths int     `json:"refit_window_months"`

	// Root RNG (4.A)
	RandomSeed uint32 `json:"random_seed"`

	// Supply generator (4.I)
	NewDwellingsPerYear int `json:"new_dwellings_per_year"`

	// Demographic collaborator parameters (not specified further by the
	// core; carried here so the scheduler can pass them through).
	HiringProbability float64 `json:"hiring_probability"`
	AverageSalary     float64 `json:"average_salary"`
	SalaryStdDev      float64 `json:"salary_std_dev"`

	// Participation model (4.H)
	NonMoverRatio             float64                   `json:"non_mover_ratio"`
	LabourForceParticipation  float64                   `json:"labour_force_participation"`
	ParticipationCoefficients ParticipationCoefficients `json:"participation_coefficients"`

	// Carry-over bookkeeping (4.J)
	CarryOverDropMonths int `json:"carry_over_drop_months"`
}

// Default returns a Config with the parameter values spec.md gives as
// defaults.
func Default() *Config {
	return &Config{
		MaxIterations:             20,
		ChoiceSetSize:             10,
		MaxBedrooms:               7,
		MonthlyTimeDecay:          0.95,
		RefitWindowMonths:         3,
		RandomSeed:                12345,
		NewDwellingsPerYear:       50,
		HiringProbability:         0.01,
		AverageSalary:             55000,
		SalaryStdDev:              18000,
		NonMoverRatio:             0.95,
		LabourForceParticipation:  0.658,
		ParticipationCoefficients: DefaultParticipationCoefficients(),
		CarryOverDropMonths:       3,
	}
}

// LoadOverrides reads a JSON file at path and merges it into c, leaving any
// field the file does not mention at its current value. A missing file is
// not an error — callers run with defaults when none is supplied.
func (c *Config) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}
