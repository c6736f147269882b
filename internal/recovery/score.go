// Package recovery blends today's vitals against their baselines into a 0-100 recovery score.
package recovery

import (
	"errors"
	"math"

	"github.com/2beens/dailymetrics/internal/wellness"
)

const (
	ComponentHRV             = "hrv_ms"
	ComponentRestingHR       = "resting_hr"
	ComponentRespiratoryRate = "respiratory_rate"
	ComponentSleep           = "sleep_score"
)

type Config struct {
	WeightHRV             float64 `toml:"weight_hrv"`
	WeightRHR             float64 `toml:"weight_rhr"`
	WeightRR              float64 `toml:"weight_rr"`
	WeightSleep           float64 `toml:"weight_sleep"`
	CurveK                float64 `toml:"curve_k"`
	CurveCenter           float64 `toml:"curve_center"`
	CurveAmplitude        float64 `toml:"curve_amplitude"`
	SleepPenaltyThreshold float64 `toml:"sleep_penalty_threshold"`
	SleepPenaltyFactor    float64 `toml:"sleep_penalty_factor"`
}

func DefaultConfig() Config {
	return Config{
		WeightHRV:             0.40,
		WeightRHR:             0.30,
		WeightRR:              0.20,
		WeightSleep:           0.10,
		CurveK:                2.0,
		CurveCenter:           70,
		CurveAmplitude:        30,
		SleepPenaltyThreshold: 50,
		SleepPenaltyFactor:    0.15,
	}
}

func (c Config) Validate() error {
	weights := []float64{c.WeightHRV, c.WeightRHR, c.WeightRR, c.WeightSleep}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return errors.New("recovery weights must not be negative")
		}
		sum += w
	}
	if sum == 0 {
		return errors.New("recovery weights must not all be zero")
	}
	if c.CurveK <= 0 {
		return errors.New("recovery curve_k must be positive")
	}
	return nil
}

// Inputs are today's values and their baselines. Nil means unknown.
type Inputs struct {
	HRV                     *float64
	HRVBaseline             *float64
	RestingHR               *float64
	RestingHRBaseline       *float64
	RespiratoryRate         *float64
	RespiratoryRateBaseline *float64
	SleepScore              *float64
}

type Breakdown struct {
	Score        int64              `json:"score"`
	Blended      float64            `json:"blended"`
	SleepPenalty float64            `json:"sleepPenalty"`
	Components   map[string]float64 `json:"components"`
	Weights      map[string]float64 `json:"weights"`
	Missing      []string           `json:"missing"`
}

// Curve maps a better-is-higher ratio onto the score scale, centered on the baseline.
func Curve(cfg Config, ratio float64) float64 {
	return wellness.Clamp(cfg.CurveCenter+cfg.CurveAmplitude*math.Tanh(cfg.CurveK*(ratio-1)), 0, 100)
}

func ratioOf(numerator, denominator *float64) (float64, bool) {
	if !wellness.FinitePtr(numerator) || !wellness.FinitePtr(denominator) || *numerator <= 0 || *denominator <= 0 {
		return 0, false
	}
	ratio := *numerator / *denominator
	return ratio, wellness.Finite(ratio)
}

// Compute fails with *wellness.InsufficientDataError when no component is available.
func Compute(cfg Config, in Inputs) (Breakdown, error) {
	type component struct {
		name   string
		weight float64
		score  float64
		ok     bool
	}

	var components []component
	addRatio := func(name string, weight float64, numerator, denominator *float64) {
		ratio, ok := ratioOf(numerator, denominator)
		c := component{name: name, weight: weight, ok: ok}
		if ok {
			c.score = Curve(cfg, ratio)
		}
		components = append(components, c)
	}
	addRatio(ComponentHRV, cfg.WeightHRV, in.HRV, in.HRVBaseline)
	addRatio(ComponentRestingHR, cfg.WeightRHR, in.RestingHRBaseline, in.RestingHR)
	addRatio(ComponentRespiratoryRate, cfg.WeightRR, in.RespiratoryRateBaseline, in.RespiratoryRate)

	sleep := component{name: ComponentSleep, weight: cfg.WeightSleep, ok: wellness.FinitePtr(in.SleepScore)}
	if sleep.ok {
		sleep.score = wellness.Clamp(*in.SleepScore, 0, 100)
	}
	components = append(components, sleep)

	b := Breakdown{
		Components: make(map[string]float64),
		Weights:    make(map[string]float64),
		Missing:    []string{},
	}
	var totalWeight float64
	for _, c := range components {
		if !c.ok {
			b.Missing = append(b.Missing, c.name)
			continue
		}
		b.Components[c.name] = c.score
		totalWeight += c.weight
	}
	if len(b.Components) == 0 {
		return Breakdown{}, &wellness.InsufficientDataError{Missing: b.Missing}
	}

	for _, c := range components {
		if !c.ok {
			continue
		}
		weight := c.weight / totalWeight
		if totalWeight == 0 {
			// every available component is configured with weight 0
			weight = 1 / float64(len(b.Components))
		}
		b.Weights[c.name] = weight
		b.Blended += c.score * weight
	}

	score := b.Blended
	if sleep.ok && *in.SleepScore < cfg.SleepPenaltyThreshold {
		b.SleepPenalty = (cfg.SleepPenaltyThreshold - *in.SleepScore) * cfg.SleepPenaltyFactor
		score -= b.SleepPenalty
	}
	b.Score = wellness.Round(wellness.Clamp(score, 0, 100))

	return b, nil
}
