// Package forward hands notifications off the listener read loop.
// Callback pushes into persistent queue and returns,
// background worker publishes to broker and deletes only after success.
//
// Delivery contract:
// - Notify blocks at most for disk write
// - messages survive restart and are published at least once, in queue order
// - broker outage delays publishing, does not lose messages
package forward

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"time"

	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/mcs/mcspb"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/spq"
)

const (
	DefaultTopic          = "hyyp/notification"
	DefaultPublishTimeout = 30 * time.Second
)

// Publisher delivers payload to topic. Error means retry later.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

// Message is queue item and published payload.
type Message struct {
	PersistentID string                 `json:"persistent_id"`
	From         string                 `json:"from,omitempty"`
	Category     string                 `json:"category,omitempty"`
	Sent         int64                  `json:"sent,omitempty"`
	Notification map[string]interface{} `json:"notification"`
}

func (m *Message) MarshalBinary() ([]byte, error) { return json.Marshal(m) }
func (m *Message) UnmarshalBinary(b []byte) error  { return json.Unmarshal(b, m) }

type Options struct {
	Log *log2.Log
	// spq.OnlyForTesting keeps queue in memory.
	QueuePath      string
	Topic          string
	PublishTimeout time.Duration
	RetryBackoff   helpers.Backoff
}

type Stat struct {
	Queued    expvar.Int
	Published expvar.Int
	Failed    expvar.Int
	Dropped   expvar.Int
}

type Forwarder struct {
	alive   *alive.Alive
	backoff helpers.Backoff
	cancel  context.CancelFunc
	ctx     context.Context
	log     *log2.Log
	opt     Options
	pub     Publisher
	q       *spq.Queue
	stat    Stat
}

// New opens queue and starts publishing worker.
// Messages left in queue by previous run are published first.
func New(pub Publisher, opt Options) (*Forwarder, error) {
	if pub == nil {
		return nil, errors.NotValidf("forward publisher nil")
	}
	if opt.QueuePath == "" {
		return nil, errors.NotValidf("forward queue path empty")
	}
	if opt.Topic == "" {
		opt.Topic = DefaultTopic
	}
	if opt.PublishTimeout == 0 {
		opt.PublishTimeout = DefaultPublishTimeout
	}
	q, err := spq.Open(opt.QueuePath)
	if err != nil {
		return nil, errors.Annotatef(err, "forward queue path=%s", opt.QueuePath)
	}
	f := &Forwarder{
		alive: alive.NewAlive(),
		log:   opt.Log,
		opt:   opt,
		pub:   pub,
		q:     q,
	}
	f.backoff.Min = opt.RetryBackoff.Min
	f.backoff.Max = opt.RetryBackoff.Max
	f.backoff.K = opt.RetryBackoff.K
	if f.backoff.Min == 0 {
		f.backoff.Min = time.Second
	}
	if f.backoff.Max == 0 {
		f.backoff.Max = 2 * time.Minute
	}
	if f.backoff.K == 0 {
		f.backoff.K = 2
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())
	f.alive.Add(1)
	go f.worker()
	return f, nil
}

// Notify has push.Callback signature.
func (f *Forwarder) Notify(ctx context.Context, notification map[string]interface{}, stanza *mcspb.DataMessageStanza) {
	m := &Message{
		PersistentID: stanza.GetPersistentId(),
		From:         stanza.GetFrom(),
		Category:     stanza.GetCategory(),
		Sent:         stanza.GetSent(),
		Notification: notification,
	}
	if err := f.Push(m); err != nil {
		f.log.Errorf("forward persistent_id=%s err=%v", m.PersistentID, err)
	}
}

func (f *Forwarder) Push(m *Message) error {
	if err := f.q.MarshalPush(m); err != nil {
		f.stat.Dropped.Add(1)
		return errors.Annotate(err, "forward queue push")
	}
	f.stat.Queued.Add(1)
	return nil
}

// Close stops worker, closes queue and publisher.
// Not yet published messages stay in queue for next run.
func (f *Forwarder) Close() error {
	f.alive.Stop()
	f.cancel()
	errs := make([]error, 0, 2)
	if err := f.q.Close(); err != nil {
		errs = append(errs, errors.Annotate(err, "forward queue close"))
	}
	f.alive.Wait()
	if err := f.pub.Close(); err != nil {
		errs = append(errs, errors.Annotate(err, "forward publisher close"))
	}
	return helpers.FoldErrors(errs)
}

func (f *Forwarder) Stat() *Stat { return &f.stat }

func (f *Forwarder) String() string {
	return fmt.Sprintf("(topic=%s queued=%d published=%d failed=%d)",
		f.opt.Topic, f.stat.Queued.Value(), f.stat.Published.Value(), f.stat.Failed.Value())
}

func (f *Forwarder) worker() {
	defer f.alive.Done()
	for {
		box, err := f.q.Peek()
		switch err {
		case nil:
			b := box.Bytes()
			if !f.handle(b) {
				// publish failed, keep item at queue head
				f.backoff.Failure()
				if !f.sleep(f.backoff.DelayBefore()) {
					return
				}
				continue
			}
			f.backoff.Reset()
			if err = f.q.Delete(box); err != nil && f.alive.IsRunning() {
				f.log.Errorf("forward queue Delete b=%x err=%v", truncate(b, 64), err)
			}

		case spq.ErrClosed:
			if f.alive.IsRunning() {
				f.log.Errorf("CRITICAL forward spq closed unexpectedly")
			}
			return

		default:
			f.log.Errorf("CRITICAL forward spq err=%v", err)
			if !f.sleep(f.backoff.Max) {
				return
			}
		}
	}
}

// handle returns true when item may be deleted from queue.
func (f *Forwarder) handle(b []byte) bool {
	var m Message
	if err := m.UnmarshalBinary(b); err != nil {
		f.stat.Dropped.Add(1)
		f.log.Errorf("forward drop corrupted item b=%x err=%v", truncate(b, 64), err)
		return true
	}
	ctx, cancel := context.WithTimeout(f.ctx, f.opt.PublishTimeout)
	err := f.pub.Publish(ctx, f.opt.Topic, b)
	cancel()
	if err != nil {
		f.stat.Failed.Add(1)
		f.log.Errorf("forward publish persistent_id=%s err=%v", m.PersistentID, err)
		return false
	}
	f.stat.Published.Add(1)
	f.log.Debugf("forward published persistent_id=%s topic=%s", m.PersistentID, f.opt.Topic)
	return true
}

func (f *Forwarder) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-f.alive.StopChan():
		return false
	}
}

func truncate(b []byte, max int) []byte {
	if len(b) > max {
		return b[:max]
	}
	return b
}
