package mcs

// Complex values are read and modified atomically, but not consistently,
// i.e. it is possible to read .Count=1 .Size=0 because Size has not updated yet.

import (
	"expvar"
	"fmt"
)

type SessionStat struct {
	Conn expvar.Int
	Recv Counters
	Send Counters
}

func (ss *SessionStat) Add(other *SessionStat) {
	ss.Conn.Add(other.Conn.Value())
	ss.Recv.Add(&other.Recv)
	ss.Send.Add(&other.Send)
}

// AddMoveFrom adds other to ss and subtracts same values from other.
func (ss *SessionStat) AddMoveFrom(other *SessionStat) {
	tmp := other.Value()
	ss.Add(&tmp)
	other.Sub(&tmp)
}

func (ss *SessionStat) Sub(other *SessionStat) {
	ss.Conn.Add(-other.Conn.Value())
	ss.Recv.Sub(&other.Recv)
	ss.Send.Sub(&other.Send)
}

func (ss *SessionStat) Value() (r SessionStat) {
	r.Conn.Set(ss.Conn.Value())
	r.Recv.Set(ss.Recv.Value())
	r.Send.Set(ss.Send.Value())
	return
}

func (ss *SessionStat) String() string {
	return fmt.Sprintf(`{"conn":%d,"recv":%s,"send":%s}`,
		ss.Conn.Value(), ss.Recv.String(), ss.Send.String())
}

type Counters struct {
	Data      CountSizePair
	Heartbeat CountSizePair
	Total     CountSizePair
}

func (c *Counters) Add(c2 *Counters) {
	c.Data.Add(&c2.Data)
	c.Heartbeat.Add(&c2.Heartbeat)
	c.Total.Add(&c2.Total)
}

// Register accounts one frame.
// Total.Size is not changed here, it is counted on the wire by stat reader/writer.
func (c *Counters) Register(tag Tag, size int) {
	c.Total.Count.Add(1)
	var category *CountSizePair
	switch tag {
	case TagDataMessageStanza:
		category = &c.Data
	case TagHeartbeatPing, TagHeartbeatAck:
		category = &c.Heartbeat
	}
	if category != nil {
		category.Count.Add(1)
		category.Size.Add(int64(size))
	}
}

func (c *Counters) Set(new Counters) {
	c.Data.Set(new.Data.Value())
	c.Heartbeat.Set(new.Heartbeat.Value())
	c.Total.Set(new.Total.Value())
}

func (c *Counters) Sub(other *Counters) {
	c.Data.Sub(&other.Data)
	c.Heartbeat.Sub(&other.Heartbeat)
	c.Total.Sub(&other.Total)
}

func (c *Counters) Value() (r Counters) {
	r.Data = c.Data.Value()
	r.Heartbeat = c.Heartbeat.Value()
	r.Total = c.Total.Value()
	return
}

func (c *Counters) String() string {
	return fmt.Sprintf(`{"data.count":%d,"data.size":%d,"heartbeat.count":%d,"heartbeat.size":%d,"total.count":%d,"total.size":%d}`,
		c.Data.Count.Value(), c.Data.Size.Value(),
		c.Heartbeat.Count.Value(), c.Heartbeat.Size.Value(),
		c.Total.Count.Value(), c.Total.Size.Value())
}

type CountSizePair struct {
	Count expvar.Int
	Size  expvar.Int
}

func (csp *CountSizePair) Add(other *CountSizePair) {
	csp.Count.Add(other.Count.Value())
	csp.Size.Add(other.Size.Value())
}

func (csp *CountSizePair) Value() (r CountSizePair) {
	r.Count.Set(csp.Count.Value())
	r.Size.Set(csp.Size.Value())
	return
}

func (csp *CountSizePair) Set(new CountSizePair) {
	csp.Count.Set(new.Count.Value())
	csp.Size.Set(new.Size.Value())
}

func (csp *CountSizePair) Sub(other *CountSizePair) {
	csp.Count.Add(-other.Count.Value())
	csp.Size.Add(-other.Size.Value())
}
