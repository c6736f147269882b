// Package strain turns a day's workouts, stress and sleep deficit into a 0-200 strain score.
package strain

import (
	"errors"
	"math"

	"github.com/2beens/dailymetrics/internal/rawdata"
	"github.com/2beens/dailymetrics/internal/wellness"
)

type Config struct {
	CaloriesWeight      float64 `toml:"calories_weight"`
	DurationWeight      float64 `toml:"duration_weight"`
	IntensityWeight     float64 `toml:"intensity_weight"`
	TrainingLoadWeight  float64 `toml:"training_load_weight"`
	SaturationRate      float64 `toml:"saturation_rate"`
	StressFloor         float64 `toml:"stress_floor"`
	StressSpan          float64 `toml:"stress_span"`
	DefaultSleepMinutes float64 `toml:"default_sleep_minutes"`
	MaxDeficitMinutes   float64 `toml:"max_deficit_minutes"`
	MaxSleepPenalty     float64 `toml:"max_sleep_penalty"`
	ExerciseWeight      float64 `toml:"exercise_weight"`
	StressWeight        float64 `toml:"stress_weight"`
	SleepWeight         float64 `toml:"sleep_weight"`
	SleepPenaltyScale   float64 `toml:"sleep_penalty_scale"`
	OutputScale         float64 `toml:"output_scale"`
	MaxStrain           float64 `toml:"max_strain"`
}

func DefaultConfig() Config {
	return Config{
		CaloriesWeight:      1,
		DurationWeight:      8,
		IntensityWeight:     4,
		TrainingLoadWeight:  10,
		SaturationRate:      0.0012,
		StressFloor:         30,
		StressSpan:          70,
		DefaultSleepMinutes: 480,
		MaxDeficitMinutes:   180,
		MaxSleepPenalty:     25,
		ExerciseWeight:      0.70,
		StressWeight:        0.20,
		SleepWeight:         0.10,
		SleepPenaltyScale:   4,
		OutputScale:         2.0,
		MaxStrain:           200,
	}
}

func (c Config) Validate() error {
	switch {
	case c.SaturationRate <= 0:
		return errors.New("strain saturation_rate must be positive")
	case c.StressSpan <= 0:
		return errors.New("strain stress_span must be positive")
	case c.MaxDeficitMinutes <= 0:
		return errors.New("strain max_deficit_minutes must be positive")
	case c.SleepWeight < 0 || c.SleepWeight > 1:
		return errors.New("strain sleep_weight must be within [0, 1]")
	case c.MaxStrain <= 0:
		return errors.New("strain max_strain must be positive")
	}
	return nil
}

type Inputs struct {
	Workouts []rawdata.Workout
	// StressAvg is the day's mean stress level, nil without readings.
	StressAvg *float64
	// SleepMinutes is the authoritative session's duration, nil when no session exists.
	SleepMinutes *float64
	// BaselineSleepMinutes is the sleep_duration_min baseline, if any.
	BaselineSleepMinutes *float64
}

type Breakdown struct {
	RawLoad       float64 `json:"rawLoad"`
	ExerciseScore float64 `json:"exerciseScore"`
	StressScore   float64 `json:"stressScore"`
	SleepPenalty  float64 `json:"sleepPenalty"`
	PreScale      float64 `json:"preScale"`
	Strain        int64   `json:"strain"`
}

// RawLoad accumulates the exercise load of the day's workouts.
// Non-finite values are skipped like missing ones.
func RawLoad(cfg Config, workouts []rawdata.Workout) float64 {
	var calories, duration, intensity, trainingLoad float64
	for _, w := range workouts {
		if wellness.FinitePtr(w.Calories) {
			calories += *w.Calories
		}
		if !wellness.Finite(w.DurationMin) {
			continue
		}
		duration += w.DurationMin
		if wellness.FinitePtr(w.AvgHR) && wellness.FinitePtr(w.MaxHR) && *w.MaxHR > 0 {
			intensity += *w.AvgHR / *w.MaxHR * w.DurationMin
		}
		if wellness.FinitePtr(w.TrainingLoad) {
			trainingLoad += *w.TrainingLoad
		}
	}
	return cfg.CaloriesWeight*calories +
		cfg.DurationWeight*duration +
		cfg.IntensityWeight*intensity +
		cfg.TrainingLoadWeight*trainingLoad
}

func Compute(cfg Config, in Inputs) Breakdown {
	var b Breakdown

	b.RawLoad = RawLoad(cfg, in.Workouts)
	b.ExerciseScore = wellness.Clamp(100*(1-math.Exp(-cfg.SaturationRate*b.RawLoad)), 0, 100)

	if wellness.FinitePtr(in.StressAvg) {
		b.StressScore = wellness.Clamp((*in.StressAvg-cfg.StressFloor)/cfg.StressSpan*100, 0, 100)
	}

	b.SleepPenalty = SleepPenalty(cfg, in.SleepMinutes, in.BaselineSleepMinutes)

	base := b.ExerciseScore*cfg.ExerciseWeight + b.StressScore*cfg.StressWeight
	b.PreScale = base*(1-cfg.SleepWeight) +
		wellness.Clamp(b.SleepPenalty*cfg.SleepPenaltyScale, 0, 100)*cfg.SleepWeight
	b.Strain = wellness.Round(wellness.Clamp(b.PreScale*cfg.OutputScale, 0, cfg.MaxStrain))

	return b
}

// SleepPenalty is the maximum penalty when there was no usable sleep session.
func SleepPenalty(cfg Config, sleepMinutes, baselineMinutes *float64) float64 {
	if !wellness.FinitePtr(sleepMinutes) {
		return cfg.MaxSleepPenalty
	}
	target := cfg.DefaultSleepMinutes
	if wellness.FinitePtr(baselineMinutes) && *baselineMinutes > 0 {
		target = *baselineMinutes
	}
	deficit := math.Min(math.Max(0, target-*sleepMinutes), cfg.MaxDeficitMinutes)
	return deficit / cfg.MaxDeficitMinutes * cfg.MaxSleepPenalty
}
