// Package atomic_clock is convenient API around atomic int64 system clock.
// Use for time accounting. Do not use where time zone matters.
package atomic_clock

import (
	"sync/atomic"
	"time"
)

type Clock struct{ v int64 }

func source() int64 { return time.Now().UnixNano() }

func (c *Clock) SetNow()         { atomic.StoreInt64(&c.v, source()) }
func (c *Clock) UnixNano() int64 { return atomic.LoadInt64(&c.v) }

func Since(begin *Clock) time.Duration { return time.Duration(source() - begin.UnixNano()) }
