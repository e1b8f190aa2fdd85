package components

import (
	"sync"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/stream"
)

type MockComponentWaiter struct {
	mu    sync.Mutex
	count int
}

func (cw *MockComponentWaiter) Add() {
	cw.mu.Lock()
	cw.count++
	cw.mu.Unlock()
}

func (cw *MockComponentWaiter) Done() {
	cw.mu.Lock()
	cw.count--
	cw.mu.Unlock()
}

func (cw *MockComponentWaiter) Count() int {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.count
}

// DrainRecords reads ch until it is closed.
func DrainRecords(ch chan stream.Record) []stream.Record {
	out := make([]stream.Record, 0, c.ChanSize/100)
	for rec := range ch {
		out = append(out, rec)
	}
	return out
}
