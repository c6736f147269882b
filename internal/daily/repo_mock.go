package daily

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/2beens/dailymetrics/internal/wellness"
)

// MemRepo is an in-memory Repo used by unit tests across the pipeline packages.
type MemRepo struct {
	mu   sync.Mutex
	rows map[string]Row
	// FailUpsert, when set, makes Upsert fail for the matching date.
	FailUpsert func(userID string, date wellness.Date) error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		rows: make(map[string]Row),
	}
}

func memKey(userID string, date wellness.Date) string {
	return userID + "|" + date.String()
}

func (r *MemRepo) Get(_ context.Context, userID string, date wellness.Date) (*Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[memKey(userID, date)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *MemRepo) ListRange(_ context.Context, userID string, from, to wellness.Date) ([]Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Row
	for _, row := range r.rows {
		if row.UserID != userID || row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (r *MemRepo) Upsert(_ context.Context, userID string, date wellness.Date, patch Patch, now time.Time) (*Row, error) {
	if r.FailUpsert != nil {
		if err := r.FailUpsert(userID, date); err != nil {
			return nil, wellness.DataAccess("upsert daily row", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var existing *Row
	if row, ok := r.rows[memKey(userID, date)]; ok {
		existing = &row
	}
	merged := Merge(existing, userID, date, patch, now)
	r.rows[memKey(userID, date)] = merged
	return &merged, nil
}

// Put stores row as-is.
func (r *MemRepo) Put(row Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[memKey(row.UserID, row.Date)] = row
}
