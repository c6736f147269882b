package daily

import (
	"time"

	"github.com/2beens/dailymetrics/internal/wellness"
)

// Field is a patch entry: absent (Set=false), present-null, or present-value.
type Field[T any] struct {
	Set   bool
	Value *T
}

func Set[T any](v *T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func SetValue[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func (f Field[T]) apply(dst **T) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		*dst = nil
		return
	}
	v := *f.Value
	*dst = &v
}

// Patch lists the columns a single computation writes. Unset fields keep their stored value.
type Patch struct {
	SleepScore       Field[float64]
	RecoveryScore    Field[int64]
	StrainScore      Field[int64]
	HRVMs            Field[float64]
	RestingHR        Field[float64]
	RespiratoryRate  Field[float64]
	SpO2             Field[float64]
	Steps            Field[int64]
	ActiveCalories   Field[float64]
	TotalCalories    Field[float64]
	DistanceM        Field[float64]
	StressAvg        Field[float64]
	SleepDurationMin Field[float64]
}

// Merge applies patch onto existing (nil when no row is stored yet) and stamps now.
func Merge(existing *Row, userID string, date wellness.Date, patch Patch, now time.Time) Row {
	var merged Row
	if existing != nil {
		merged = *existing
	}
	merged.UserID = userID
	merged.Date = date

	patch.SleepScore.apply(&merged.SleepScore)
	patch.RecoveryScore.apply(&merged.RecoveryScore)
	patch.StrainScore.apply(&merged.StrainScore)
	patch.HRVMs.apply(&merged.HRVMs)
	patch.RestingHR.apply(&merged.RestingHR)
	patch.RespiratoryRate.apply(&merged.RespiratoryRate)
	patch.SpO2.apply(&merged.SpO2)
	patch.Steps.apply(&merged.Steps)
	patch.ActiveCalories.apply(&merged.ActiveCalories)
	patch.TotalCalories.apply(&merged.TotalCalories)
	patch.DistanceM.apply(&merged.DistanceM)
	patch.StressAvg.apply(&merged.StressAvg)
	patch.SleepDurationMin.apply(&merged.SleepDurationMin)

	merged.LastComputedAt = now.UTC()
	return merged
}
