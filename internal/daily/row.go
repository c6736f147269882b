package daily

import (
	"time"

	"github.com/2beens/dailymetrics/internal/wellness"
)

// Row is the per user, per calendar day aggregate. Nil means the value is unknown.
type Row struct {
	UserID           string        `json:"userId"`
	Date             wellness.Date `json:"date"`
	SleepScore       *float64      `json:"sleepScore"`
	RecoveryScore    *int64        `json:"recoveryScore"`
	StrainScore      *int64        `json:"strainScore"`
	HRVMs            *float64      `json:"hrvMs"`
	RestingHR        *float64      `json:"restingHr"`
	RespiratoryRate  *float64      `json:"respiratoryRate"`
	SpO2             *float64      `json:"spo2"`
	Steps            *int64        `json:"steps"`
	ActiveCalories   *float64      `json:"activeCalories"`
	TotalCalories    *float64      `json:"totalCalories"`
	DistanceM        *float64      `json:"distanceM"`
	StressAvg        *float64      `json:"stressAvg"`
	SleepDurationMin *float64      `json:"sleepDurationMin"`
	LastComputedAt   time.Time     `json:"lastComputedAt"`
}

// Value returns the column backing the given metric as a float.
func (r *Row) Value(metric wellness.Metric) *float64 {
	if r == nil {
		return nil
	}
	switch metric {
	case wellness.MetricSleepScore:
		return r.SleepScore
	case wellness.MetricRecoveryScore:
		return intAsFloat(r.RecoveryScore)
	case wellness.MetricStrainScore:
		return intAsFloat(r.StrainScore)
	case wellness.MetricHRV:
		return r.HRVMs
	case wellness.MetricRestingHR:
		return r.RestingHR
	case wellness.MetricRespiratoryRate:
		return r.RespiratoryRate
	case wellness.MetricSpO2:
		return r.SpO2
	case wellness.MetricSteps:
		return intAsFloat(r.Steps)
	case wellness.MetricActiveCalories:
		return r.ActiveCalories
	case wellness.MetricTotalCalories:
		return r.TotalCalories
	case wellness.MetricDistance:
		return r.DistanceM
	case wellness.MetricStressAvg:
		return r.StressAvg
	case wellness.MetricSleepDurationMin:
		return r.SleepDurationMin
	default:
		return nil
	}
}

func intAsFloat(v *int64) *float64 {
	if v == nil {
		return nil
	}
	return wellness.Float(float64(*v))
}
