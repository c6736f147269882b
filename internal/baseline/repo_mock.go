package baseline

import (
	"context"
	"sync"

	"github.com/2beens/dailymetrics/internal/wellness"
)

// MemRepo is an in-memory Repo for unit tests.
type MemRepo struct {
	mu      sync.Mutex
	rows    map[string]Row
	lookups int
	Err     error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		rows: make(map[string]Row),
	}
}

func (r *MemRepo) Upsert(_ context.Context, row Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return wellness.DataAccess("upsert baseline", r.Err)
	}
	r.rows[row.UserID+"|"+string(row.Metric)+"|"+row.ComputedOn.String()] = row
	return nil
}

func (r *MemRepo) LatestOnOrBefore(_ context.Context, userID string, metric wellness.Metric, date wellness.Date) (*Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.Err != nil {
		return nil, wellness.DataAccess("lookup baseline", r.Err)
	}
	var latest *Row
	for _, row := range r.rows {
		if row.UserID != userID || row.Metric != metric || row.ComputedOn.After(date) {
			continue
		}
		if latest == nil || row.ComputedOn.After(latest.ComputedOn) {
			found := row
			latest = &found
		}
	}
	return latest, nil
}

// Lookups reports how many times LatestOnOrBefore reached the repo.
func (r *MemRepo) Lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

// Count returns the number of stored rows.
func (r *MemRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}
