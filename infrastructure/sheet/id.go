package sheet

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator issues SH-<millisecond> identifiers, bumping the timestamp
// when two sheets are created within the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return "SH-" + strconv.FormatInt(ms, 10)
}
