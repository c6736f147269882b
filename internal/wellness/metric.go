package wellness

import "fmt"

// Metric names a Daily Metrics Row column that can carry a baseline.
type Metric string

const (
	MetricSleepScore       Metric = "sleep_score"
	MetricRecoveryScore    Metric = "recovery_score"
	MetricStrainScore      Metric = "strain_score"
	MetricHRV              Metric = "hrv_ms"
	MetricRestingHR        Metric = "resting_hr"
	MetricRespiratoryRate  Metric = "respiratory_rate"
	MetricSpO2             Metric = "spo2"
	MetricSteps            Metric = "steps"
	MetricActiveCalories   Metric = "active_calories"
	MetricTotalCalories    Metric = "total_calories"
	MetricDistance         Metric = "distance_m"
	MetricStressAvg        Metric = "stress_avg"
	MetricSleepDurationMin Metric = "sleep_duration_min"
)

// IntradayStressLevel is the intraday metric averaged into stress_avg.
const IntradayStressLevel = "stress_level"

// DefaultBaselineMetrics is the metric set refreshed after each pipeline run.
var DefaultBaselineMetrics = []Metric{
	MetricSleepScore,
	MetricRecoveryScore,
	MetricStrainScore,
	MetricHRV,
	MetricRestingHR,
	MetricRespiratoryRate,
	MetricSpO2,
	MetricSteps,
	MetricActiveCalories,
	MetricDistance,
	MetricStressAvg,
}

var knownMetrics = map[Metric]bool{
	MetricSleepScore:       true,
	MetricRecoveryScore:    true,
	MetricStrainScore:      true,
	MetricHRV:              true,
	MetricRestingHR:        true,
	MetricRespiratoryRate:  true,
	MetricSpO2:             true,
	MetricSteps:            true,
	MetricActiveCalories:   true,
	MetricTotalCalories:    true,
	MetricDistance:         true,
	MetricStressAvg:        true,
	MetricSleepDurationMin: true,
}

func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if !knownMetrics[m] {
		return "", fmt.Errorf("%w: unknown metric [%s]", ErrInvalidInput, s)
	}
	return m, nil
}

func ParseMetrics(raw []string) ([]Metric, error) {
	seen := make(map[Metric]bool, len(raw))
	metrics := make([]Metric, 0, len(raw))
	for _, s := range raw {
		m, err := ParseMetric(s)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		metrics = append(metrics, m)
	}
	return metrics, nil
}
