package push

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/mcs"
	"github.com/hyyp-go/hyyp/mcs/mcspb"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type fakeRecv struct {
	m   proto.Message
	err error
}

type fakeConn struct {
	name   string
	recv   chan fakeRecv
	sent   chan proto.Message
	closed chan struct{}
	once   sync.Once
	stat   mcs.SessionStat
}

func newFakeConn(name string) *fakeConn {
	return &fakeConn{
		name:   name,
		recv:   make(chan fakeRecv, 32),
		sent:   make(chan proto.Message, 32),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}
func (c *fakeConn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
func (c *fakeConn) Receive(ctx context.Context) (*mcs.Frame, error) {
	select {
	case r := <-c.recv:
		if r.err != nil {
			return nil, r.err
		}
		tag := mcs.TagOf(r.m)
		c.stat.Recv.Register(tag, 1)
		return &mcs.Frame{Tag: tag, Message: r.m}, nil
	case <-c.closed:
		return nil, mcs.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
func (c *fakeConn) Send(ctx context.Context, m proto.Message) error {
	if c.Closed() {
		return mcs.ErrClosed
	}
	c.stat.Send.Register(mcs.TagOf(m), 1)
	c.sent <- m
	return nil
}
func (c *fakeConn) SinceLastRecv() time.Duration { return 0 }
func (c *fakeConn) Stat() *mcs.SessionStat       { return &c.stat }
func (c *fakeConn) String() string               { return c.name }

func (c *fakeConn) push(m proto.Message) { c.recv <- fakeRecv{m: m} }
func (c *fakeConn) fail(err error)       { c.recv <- fakeRecv{err: err} }

func (c *fakeConn) expectSent(t testing.TB) proto.Message {
	t.Helper()
	select {
	case m := <-c.sent:
		return m
	case <-time.After(testTimeout):
		t.Fatalf("conn=%s nothing sent", c.name)
		return nil
	}
}

func (c *fakeConn) expectLogin(t testing.TB) *mcspb.LoginRequest {
	t.Helper()
	m := c.expectSent(t)
	req, ok := m.(*mcspb.LoginRequest)
	require.True(t, ok, "expected LoginRequest, sent %T %v", m, m)
	return req
}

// sync sends ping and waits for ack, so all earlier frames are processed.
func (c *fakeConn) sync(t testing.TB, streamID int32) {
	t.Helper()
	c.push(&mcspb.HeartbeatPing{StreamId: proto.Int32(streamID)})
	ack, ok := c.expectSent(t).(*mcspb.HeartbeatAck)
	require.True(t, ok)
	require.Equal(t, streamID, ack.GetLastStreamIdReceived())
}

type harness struct {
	t         *testing.T
	l         *Listener
	conns     chan *fakeConn
	delivered chan map[string]interface{}
	checkins  int32
	checkErr  atomic.Value
	now       int64
	cancel    context.CancelFunc
	errc      chan error
}

func newHarness(t *testing.T, alreadySeen []string) *harness {
	h := &harness{
		t:         t,
		conns:     make(chan *fakeConn, 8),
		delivered: make(chan map[string]interface{}, 16),
		now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano(),
		errc:      make(chan error, 1),
	}
	opt := Options{
		Log:          log2.NewTest(t, log2.LDebug),
		ResetBackoff: helpers.Backoff{Min: time.Millisecond, Max: 10 * time.Millisecond, K: 2},
		Now:          func() time.Time { return time.Unix(0, atomic.LoadInt64(&h.now)) },
		Dial: func(ctx context.Context) (mcs.Conn, error) {
			select {
			case c := <-h.conns:
				return c, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
		CheckIn: func(ctx context.Context, androidID, securityToken uint64) error {
			atomic.AddInt32(&h.checkins, 1)
			if err, ok := h.checkErr.Load().(error); ok {
				return err
			}
			return nil
		},
	}
	callback := func(ctx context.Context, n map[string]interface{}, s *mcspb.DataMessageStanza) {
		h.delivered <- n
	}
	var err error
	h.l, err = NewListener(testCredentials(), callback, alreadySeen, opt)
	require.NoError(t, err)
	return h
}

func (h *harness) run() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errc <- h.l.Run(ctx) }()
}

func (h *harness) advance(d time.Duration) { atomic.AddInt64(&h.now, int64(d)) }

// dial queues new connection for next login.
func (h *harness) dial(name string) *fakeConn {
	c := newFakeConn(name)
	h.conns <- c
	return c
}

func (h *harness) expectDelivered() map[string]interface{} {
	h.t.Helper()
	select {
	case n := <-h.delivered:
		return n
	case <-time.After(testTimeout):
		h.t.Fatal("nothing delivered")
		return nil
	}
}

func (h *harness) expectStop() error {
	h.t.Helper()
	select {
	case err := <-h.errc:
		return err
	case <-time.After(testTimeout):
		h.t.Fatal("Run did not return")
		return nil
	}
}

func TestListenerLogin(t *testing.T) {
	t.Parallel()
	seen := []string{"0:100", "0:101"}
	h := newHarness(t, seen)
	c := h.dial("c1")
	h.run()

	req := c.expectLogin(t)
	creds := testCredentials()
	assert.Equal(t, LoginID, req.GetId())
	assert.Equal(t, LoginDomain, req.GetDomain())
	assert.Equal(t, strconv.FormatUint(creds.AndroidID, 10), req.GetUser())
	assert.Equal(t, req.GetUser(), req.GetResource())
	assert.Equal(t, strconv.FormatUint(creds.SecurityToken, 10), req.GetAuthToken())
	assert.Equal(t, fmt.Sprintf("android-%x", creds.AndroidID), req.GetDeviceId())
	assert.Equal(t, int32(1), req.GetNetworkType())
	assert.Equal(t, mcspb.AuthServiceAndroidID, req.GetAuthService())
	assert.True(t, req.GetUseRmq2())
	assert.False(t, req.GetAdaptiveHeartbeat())
	require.Len(t, req.Setting, 1)
	assert.Equal(t, "new_vc", req.Setting[0].GetName())
	assert.Equal(t, "1", req.Setting[0].GetValue())
	assert.Equal(t, seen, req.ReceivedPersistentId)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.checkins))

	c.push(&mcspb.LoginResponse{Id: proto.String("resp")})
	c.sync(t, 1)
	assert.Equal(t, StateListening, h.l.State())
	assert.Equal(t, int64(1), h.l.Stat().Logins.Value())

	h.cancel()
	assert.Equal(t, context.Canceled, h.expectStop())
	assert.Equal(t, StateDisconnected, h.l.State())
	assert.True(t, c.Closed())
	cs := h.l.ConnStat()
	assert.Equal(t, int64(2), cs.Send.Total.Count.Value())
}

func TestListenerHeartbeat(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c := h.dial("c1")
	h.run()
	c.expectLogin(t)
	c.push(&mcspb.LoginResponse{})

	cases := []struct{ stream, status int64 }{{5, 7}, {0, 0}, {41, 123456789}}
	for _, tc := range cases {
		c.push(&mcspb.HeartbeatPing{StreamId: proto.Int32(int32(tc.stream)), Status: proto.Int64(tc.status)})
		m := c.expectSent(t)
		assert.Equal(t, &mcspb.HeartbeatAck{
			StreamId:             proto.Int32(int32(tc.stream) + 1),
			LastStreamIdReceived: proto.Int32(int32(tc.stream)),
			Status:               proto.Int64(tc.status),
		}, m)
	}
	assert.Equal(t, int64(3), h.l.Stat().Heartbeats.Value())
	h.cancel()
	h.expectStop()
}

func TestListenerDeliver(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"0:seen"})
	c := h.dial("c1")
	h.run()
	c.expectLogin(t)
	c.push(&mcspb.LoginResponse{})

	c.push(testStanza("0:1", cipherAlarm))
	c.push(testStanza("0:2", cipherText))
	c.push(testStanza("0:3", cipherPadded))
	c.push(testStanza("0:1", cipherAlarm))
	c.push(testStanza("0:seen", cipherAlarm))
	c.sync(t, 1)

	assert.Equal(t, "Alarm", h.expectDelivered()["title"])
	assert.Equal(t, 1.0, h.expectDelivered()["a"])
	assert.Len(t, h.delivered, 0)
	assert.Equal(t, []string{"0:seen", "0:1", "0:2", "0:3"}, h.l.PersistentIDs())
	st := h.l.Stat()
	assert.Equal(t, int64(2), st.Delivered.Value())
	assert.Equal(t, int64(1), st.Undeliverable.Value())
	assert.Equal(t, int64(2), st.Duplicates.Value())

	h.cancel()
	h.expectStop()
}

func TestListenerFirstFrameNotLoginResponse(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c := h.dial("c1")
	h.run()
	c.expectLogin(t)
	c.push(testStanza("0:1", cipherAlarm))
	assert.Equal(t, "Alarm", h.expectDelivered()["title"])
	c.sync(t, 1)
	assert.Equal(t, StateListening, h.l.State())
	h.cancel()
	h.expectStop()
}

func TestListenerLoginResponseError(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c := h.dial("c1")
	h.run()
	c.expectLogin(t)
	c.push(&mcspb.LoginResponse{Error: &mcspb.ErrorInfo{Code: proto.Int32(401), Message: proto.String("auth")}})
	c.sync(t, 1)
	assert.Equal(t, StateListening, h.l.State())
	assert.False(t, c.Closed())
	c.push(testStanza("0:1", cipherAlarm))
	assert.Equal(t, "Alarm", h.expectDelivered()["title"])
	h.cancel()
	h.expectStop()
}

func TestListenerReconnectCarriesIDs(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c1 := h.dial("c1")
	h.run()
	c1.expectLogin(t)
	c1.push(&mcspb.LoginResponse{})
	c1.push(testStanza("0:1", cipherAlarm))
	h.expectDelivered()
	c1.push(&mcspb.Close{})

	c2 := h.dial("c2")
	req := c2.expectLogin(t)
	assert.Equal(t, []string{"0:1"}, req.ReceivedPersistentId)
	assert.True(t, c1.Closed())
	assert.Equal(t, int32(2), atomic.LoadInt32(&h.checkins))
	c2.push(&mcspb.LoginResponse{})

	// redelivered message is not reported again
	c2.push(testStanza("0:1", cipherAlarm))
	c2.sync(t, 1)
	assert.Len(t, h.delivered, 0)
	assert.Equal(t, int64(1), h.l.Stat().Resets.Value())

	h.advance(DefaultMinResetInterval + time.Second)
	c2.fail(mcs.ErrTimeout)
	c3 := h.dial("c3")
	c3.expectLogin(t)
	assert.Equal(t, int64(2), h.l.Stat().Resets.Value())

	h.cancel()
	h.expectStop()
}

func TestListenerTooManyReconnects(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c1 := h.dial("c1")
	h.run()
	c1.expectLogin(t)
	c1.push(&mcspb.LoginResponse{})
	c1.push(&mcspb.Close{})

	c2 := h.dial("c2")
	c2.expectLogin(t)
	h.advance(DefaultMinResetInterval - time.Second)
	c2.fail(mcs.ErrClosed)

	err := h.expectStop()
	require.Error(t, err)
	assert.Equal(t, ErrTooManyReconnects, errors.Cause(err), errors.ErrorStack(err))
	assert.True(t, c2.Closed())
	assert.Equal(t, StateDisconnected, h.l.State())
}

func TestListenerConnResetSkipsInterval(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c1 := h.dial("c1")
	h.run()
	c1.expectLogin(t)
	c1.push(&mcspb.LoginResponse{})
	c1.fail(mcs.ErrConnReset)

	c2 := h.dial("c2")
	c2.expectLogin(t)
	c2.push(&mcspb.LoginResponse{})
	c2.fail(mcs.ErrConnReset)

	c3 := h.dial("c3")
	c3.expectLogin(t)
	c3.sync(t, 1)
	st := h.l.Stat()
	assert.Equal(t, int64(2), st.ConnResets.Value())
	assert.Equal(t, int64(0), st.Resets.Value())
	assert.Equal(t, int64(3), st.Logins.Value())
	assert.Equal(t, int32(3), atomic.LoadInt32(&h.checkins))

	h.cancel()
	h.expectStop()
}

func TestListenerFatal(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c := h.dial("c1")
	h.run()
	c.expectLogin(t)
	c.push(&mcspb.LoginResponse{})
	c.fail(errors.Annotate(mcs.ErrUnknownTag, "tag=5"))

	err := h.expectStop()
	assert.Equal(t, mcs.ErrUnknownTag, errors.Cause(err), errors.ErrorStack(err))
	assert.True(t, c.Closed())
}

func TestListenerCheckInFatal(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	checkErr := fmt.Errorf("checkin rejected")
	h.checkErr.Store(checkErr)
	h.run()

	err := h.expectStop()
	assert.Equal(t, checkErr, errors.Cause(err))
	assert.Len(t, h.conns, 0)
}

func TestListenerClose(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c := h.dial("c1")
	h.run()
	c.expectLogin(t)
	c.push(&mcspb.LoginResponse{})
	c.sync(t, 1)

	require.NoError(t, h.l.Close())
	assert.Equal(t, ErrClosing, h.expectStop())
	h.l.Wait()
	assert.True(t, c.Closed())
	h.cancel()

	// stopped listener does not start again
	assert.Equal(t, ErrClosing, h.l.Run(context.Background()))
}

func TestListenerCancelWhileDialing(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.run()
	h.cancel()
	assert.Equal(t, context.Canceled, h.expectStop())
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "listening", StateListening.String())
	assert.Equal(t, "State(9)", State(9).String())
}
