// Package rawdata reads the provider records written by the sync collaborator.
package rawdata

import (
	"sort"
	"time"

	"github.com/2beens/dailymetrics/internal/wellness"
)

type Workout struct {
	ID           int64
	UserID       string
	Date         wellness.Date
	StartedAt    time.Time
	DurationMin  float64
	Calories     *float64
	DistanceM    *float64
	AvgHR        *float64
	MaxHR        *float64
	TrainingLoad *float64
}

type SleepStages struct {
	DeepMin  *float64
	LightMin *float64
	RemMin   *float64
	AwakeMin *float64
}

type SleepSession struct {
	ID          int64
	UserID      string
	Date        wellness.Date
	StartedAt   time.Time
	DurationMin float64
	Efficiency  *float64
	Score       *float64
	Stages      SleepStages
}

type IntradayPoint struct {
	UserID string
	Date   wellness.Date
	Metric string
	Value  float64
	At     time.Time
}

type ProviderConnection struct {
	UserID    string
	Provider  string
	Active    bool
	UpdatedAt time.Time
}

// LongestSession picks the authoritative session of a night: the longest one,
// ties broken by the earliest start and then the lowest id.
func LongestSession(sessions []SleepSession) *SleepSession {
	if len(sessions) == 0 {
		return nil
	}
	sorted := make([]SleepSession, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DurationMin != sorted[j].DurationMin {
			return sorted[i].DurationMin > sorted[j].DurationMin
		}
		if !sorted[i].StartedAt.Equal(sorted[j].StartedAt) {
			return sorted[i].StartedAt.Before(sorted[j].StartedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return &sorted[0]
}

// StressAverage is the clamped mean of the finite stress_level points, nil without any.
func StressAverage(points []IntradayPoint) *float64 {
	values := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Metric != wellness.IntradayStressLevel || !wellness.Finite(p.Value) {
			continue
		}
		values = append(values, p.Value)
	}
	mean := wellness.Mean(values)
	if mean == nil {
		return nil
	}
	return wellness.Float(wellness.Clamp(*mean, 0, 100))
}
