package rawdata

import (
	"context"
	"sort"
	"sync"

	"github.com/2beens/dailymetrics/internal/wellness"
)

// MemRepo is an in-memory Repo for unit tests.
type MemRepo struct {
	mu          sync.Mutex
	workouts    []Workout
	sessions    []SleepSession
	points      []IntradayPoint
	connections []ProviderConnection
	// Err, when set, is returned from every read.
	Err error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{}
}

func (r *MemRepo) AddWorkout(w Workout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workouts = append(r.workouts, w)
}

func (r *MemRepo) AddSleepSession(s SleepSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *MemRepo) AddIntradayPoint(p IntradayPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, p)
}

func (r *MemRepo) AddConnection(c ProviderConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections = append(r.connections, c)
}

func (r *MemRepo) Workouts(_ context.Context, userID string, date wellness.Date) ([]Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, wellness.DataAccess("list workouts", r.Err)
	}
	var result []Workout
	for _, w := range r.workouts {
		if w.UserID == userID && w.Date.Equal(date) {
			result = append(result, w)
		}
	}
	return result, nil
}

func (r *MemRepo) SleepSessions(_ context.Context, userID string, date wellness.Date) ([]SleepSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, wellness.DataAccess("list sleep sessions", r.Err)
	}
	var result []SleepSession
	for _, s := range r.sessions {
		if s.UserID == userID && s.Date.Equal(date) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *MemRepo) IntradayPoints(_ context.Context, userID string, date wellness.Date, metric string) ([]IntradayPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, wellness.DataAccess("list intraday points", r.Err)
	}
	var result []IntradayPoint
	for _, p := range r.points {
		if p.UserID == userID && p.Date.Equal(date) && p.Metric == metric {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *MemRepo) ActiveConnections(_ context.Context, limit int) ([]ProviderConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, wellness.DataAccess("list provider connections", r.Err)
	}
	byUser := make(map[string]ProviderConnection)
	for _, c := range r.connections {
		if !c.Active {
			continue
		}
		if prev, ok := byUser[c.UserID]; ok && prev.UpdatedAt.After(c.UpdatedAt) {
			continue
		}
		byUser[c.UserID] = c
	}
	result := make([]ProviderConnection, 0, len(byUser))
	for _, c := range byUser {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
