package baseline

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// LookupCache keeps recent "latest baseline on or before date" answers, including misses.
// Keys carry a per-user generation, bumped whenever that user's baselines are recomputed.
type LookupCache struct {
	cache     *freecache.Cache
	expireSec int

	mu          sync.Mutex
	generations map[string]uint64
}

func NewLookupCache(sizeMB int, ttl time.Duration) *LookupCache {
	if sizeMB <= 0 {
		sizeMB = 16
	}
	expireSec := int(ttl.Seconds())
	if expireSec <= 0 {
		expireSec = 300
	}
	return &LookupCache{
		cache:       freecache.NewCache(sizeMB * megabyte),
		expireSec:   expireSec,
		generations: make(map[string]uint64),
	}
}

func (c *LookupCache) key(userID string, metric wellness.Metric, date wellness.Date) []byte {
	c.mu.Lock()
	gen := c.generations[userID]
	c.mu.Unlock()
	return []byte(fmt.Sprintf("baseline::%s::%d::%s::%s", userID, gen, metric, date))
}

// Get reports found=false when nothing is cached. A cached miss is found=true with a nil row.
func (c *LookupCache) Get(userID string, metric wellness.Metric, date wellness.Date) (row *Row, found bool) {
	cached, err := c.cache.Get(c.key(userID, metric, date))
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(cached, &row); err != nil {
		log.Errorf("unmarshal cached baseline [%s %s %s]: %s", userID, metric, date, err)
		return nil, false
	}
	if row != nil {
		row.UserID = userID
	}
	return row, true
}

func (c *LookupCache) Set(userID string, metric wellness.Metric, date wellness.Date, row *Row) {
	rowBytes, err := json.Marshal(row)
	if err != nil {
		log.Errorf("marshal baseline for cache [%s %s %s]: %s", userID, metric, date, err)
		return
	}
	if err := c.cache.Set(c.key(userID, metric, date), rowBytes, c.expireSec); err != nil {
		log.Errorf("write baseline cache [%s %s %s]: %s", userID, metric, date, err)
	}
}

// Invalidate drops every cached lookup of the user.
func (c *LookupCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
}
