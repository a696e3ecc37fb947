package service

import (
	"fmt"
	"sync"

	"github.com/smallbiznis/tillpoint/internal/clock"
)

// NumberGenerator produces receipt numbers like TXN-202601021504050001.
// The sequence resets each second; collisions across restarts within the same
// second are caught by the unique index on transactions.number.
type NumberGenerator struct {
	clock clock.Clock

	mu    sync.Mutex
	stamp string
	seq   int
}

func NewNumberGenerator(c clock.Clock) *NumberGenerator {
	return &NumberGenerator{clock: c}
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := g.clock.Now().Format("20060102150405")
	if stamp == g.stamp {
		g.seq++
	} else {
		g.stamp = stamp
		g.seq = 1
	}
	return fmt.Sprintf("TXN-%s%04d", stamp, g.seq)
}
