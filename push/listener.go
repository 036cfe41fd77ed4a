package push

import (
	"context"
	"expvar"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyyp-go/hyyp/gcm"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/mcs"
	"github.com/hyyp-go/hyyp/mcs/mcspb"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
)

const (
	DefaultMinResetInterval = 5 * time.Minute

	LoginID     = "chrome-" + gcm.ChromeVersion
	LoginDomain = "mcs.android.com"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateListening
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateReconnecting:
		return "reconnecting"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

type Options struct {
	Log  *log2.Log
	Addr string
	Conn mcs.ConnOptions
	GCM  *gcm.Client

	// Server Close or read timeout sooner than this after previous one is fatal.
	MinResetInterval time.Duration
	// Delays re-login after connection reset, first attempt is immediate.
	ResetBackoff helpers.Backoff

	Now     func() time.Time
	Dial    func(ctx context.Context) (mcs.Conn, error)
	CheckIn func(ctx context.Context, androidID, securityToken uint64) error
}

// Stat counts listener events, values only grow.
type Stat struct {
	Logins        expvar.Int
	Resets        expvar.Int
	ConnResets    expvar.Int
	Heartbeats    expvar.Int
	Delivered     expvar.Int
	Undeliverable expvar.Int
	Duplicates    expvar.Int
}

// Listener owns at most one MCS connection at a time.
type Listener struct {
	alive    *alive.Alive
	callback Callback
	creds    *gcm.Credentials
	opt      Options
	backoff  helpers.Backoff
	sess     *session
	state    int32

	// set by connection reset, next login waits backoff delay
	resetPending bool

	mu   sync.Mutex
	conn mcs.Conn

	connStat mcs.SessionStat
	stat     Stat
}

func NewListener(creds *gcm.Credentials, callback Callback, alreadySeen []string, opt Options) (*Listener, error) {
	if creds == nil {
		return nil, errors.NotValidf("credentials nil")
	}
	if callback == nil {
		return nil, errors.NotValidf("callback nil")
	}
	if creds.AndroidID == 0 || creds.SecurityToken == 0 {
		return nil, errors.NotValidf("credentials without android_id/security_token")
	}
	if _, err := creds.Keys.ECDH(); err != nil {
		return nil, errors.Annotate(err, "credentials keys")
	}

	if opt.Addr == "" {
		opt.Addr = mcs.DefaultAddr
	}
	if opt.Conn.Log == nil {
		opt.Conn.Log = opt.Log
	}
	if opt.MinResetInterval == 0 {
		opt.MinResetInterval = DefaultMinResetInterval
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Dial == nil {
		addr, connOpt := opt.Addr, opt.Conn
		opt.Dial = func(ctx context.Context) (mcs.Conn, error) {
			return mcs.DialContext(ctx, net.Dialer{}, addr, connOpt)
		}
	}
	if opt.CheckIn == nil {
		client := opt.GCM
		if client == nil {
			client = gcm.NewClient(opt.Log)
		}
		opt.CheckIn = func(ctx context.Context, androidID, securityToken uint64) error {
			_, err := client.CheckIn(ctx, androidID, securityToken)
			return err
		}
	}
	l := &Listener{
		alive:    alive.NewAlive(),
		callback: callback,
		creds:    creds,
		opt:      opt,
		sess:     newSession(alreadySeen),
	}
	l.backoff.Min = opt.ResetBackoff.Min
	l.backoff.Max = opt.ResetBackoff.Max
	l.backoff.K = opt.ResetBackoff.K
	if l.backoff.Min == 0 {
		l.backoff.Min = time.Second
	}
	if l.backoff.Max == 0 {
		l.backoff.Max = opt.MinResetInterval
	}
	if l.backoff.K == 0 {
		l.backoff.K = 2
	}
	return l, nil
}

// Run blocks until fatal error, ctx cancel (returns context error) or Close (returns ErrClosing).
// Listener is single use, Run after return gives ErrClosing.
func (l *Listener) Run(ctx context.Context) error {
	if !l.alive.Add(1) {
		return ErrClosing
	}
	defer l.alive.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
		case <-l.alive.StopChan():
			cancel()
		}
		l.closeConn()
	}()

	state := StateConnecting
	for {
		l.setState(state)
		var err error
		switch state {
		case StateConnecting:
			if l.resetPending {
				l.resetPending = false
				if err = l.sleep(ctx, l.backoff.DelayBefore()); err != nil {
					break
				}
				l.backoff.Failure()
			}
			state, err = l.connect(ctx)
		case StateListening:
			state, err = l.listen(ctx)
		case StateReconnecting:
			state, err = l.reconnect(ctx)
		default:
			panic("code error push.Listener unexpected state=" + state.String())
		}
		if err != nil {
			l.closeConn()
			l.setState(StateDisconnected)
			if serr := l.stopErr(ctx); serr != nil {
				err = serr
			} else {
				l.opt.Log.Errorf("push listener stop err=%v", err)
			}
			l.alive.Stop()
			return err
		}
	}
}

// Close stops Run and closes connection. Does not wait, use Wait.
func (l *Listener) Close() error {
	l.alive.Stop()
	l.closeConn()
	return nil
}

// Wait blocks until Run returns, or Close if Run was never called.
func (l *Listener) Wait() { l.alive.Wait() }

func (l *Listener) State() State { return State(atomic.LoadInt32(&l.state)) }

// PersistentIDs returns all acknowledged ids in receipt order, including already seen.
func (l *Listener) PersistentIDs() []string { return l.sess.ids() }

func (l *Listener) Stat() *Stat { return &l.stat }

// ConnStat sums traffic of closed and current connections.
func (l *Listener) ConnStat() mcs.SessionStat {
	s := l.connStat.Value()
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn != nil {
		cur := conn.Stat().Value()
		s.Add(&cur)
	}
	return s
}

func (l *Listener) String() string {
	return fmt.Sprintf("(android_id=%d state=%s acked=%d)", l.creds.AndroidID, l.State(), len(l.sess.ids()))
}

func (l *Listener) setState(s State) { atomic.StoreInt32(&l.state, int32(s)) }

func (l *Listener) stopErr(ctx context.Context) error {
	if !l.alive.IsRunning() {
		return ErrClosing
	}
	return ctx.Err()
}

func (l *Listener) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return l.stopErr(ctx)
	}
	l.opt.Log.Debugf("push sleep %v", d)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return l.stopErr(ctx)
}

// setConn makes c current unless listener is stopping.
func (l *Listener) setConn(ctx context.Context, c mcs.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopErr(ctx) != nil {
		_ = c.Close()
		return false
	}
	l.conn = c
	return true
}

func (l *Listener) closeConn() {
	l.mu.Lock()
	c := l.conn
	l.conn = nil
	if c != nil {
		if err := c.Close(); err != nil {
			l.opt.Log.Debugf("push close conn=%s err=%v", c, err)
		}
		l.connStat.AddMoveFrom(c.Stat())
	}
	l.mu.Unlock()
}

func (l *Listener) loginRequest() *mcspb.LoginRequest {
	androidID := strconv.FormatUint(l.creds.AndroidID, 10)
	return &mcspb.LoginRequest{
		Id:                   proto.String(LoginID),
		Domain:               proto.String(LoginDomain),
		User:                 proto.String(androidID),
		Resource:             proto.String(androidID),
		AuthToken:            proto.String(strconv.FormatUint(l.creds.SecurityToken, 10)),
		DeviceId:             proto.String(fmt.Sprintf("android-%x", l.creds.AndroidID)),
		NetworkType:          proto.Int32(1),
		UseRmq2:              proto.Bool(true),
		AdaptiveHeartbeat:    proto.Bool(false),
		AuthService:          proto.Int32(mcspb.AuthServiceAndroidID),
		Setting:              []*mcspb.Setting{{Name: proto.String("new_vc"), Value: proto.String("1")}},
		ReceivedPersistentId: l.sess.ids(),
	}
}

// connect is CONNECTING state: check-in, dial, login, wait for response.
func (l *Listener) connect(ctx context.Context) (State, error) {
	l.closeConn()
	if err := l.opt.CheckIn(ctx, l.creds.AndroidID, l.creds.SecurityToken); err != nil {
		return StateDisconnected, errors.Annotate(err, "checkin")
	}
	conn, err := l.opt.Dial(ctx)
	if err != nil {
		return StateDisconnected, errors.Annotate(err, "dial")
	}
	if !l.setConn(ctx, conn) {
		return StateDisconnected, l.stopErr(ctx)
	}
	l.stat.Logins.Add(1)

	req := l.loginRequest()
	l.opt.Log.Debugf("push login conn=%s persistent_ids=%d", conn, len(req.ReceivedPersistentId))
	if err = conn.Send(ctx, req); err != nil {
		return l.connError(ctx, conn, err)
	}
	f, err := conn.Receive(ctx)
	if err != nil {
		return l.connError(ctx, conn, err)
	}
	// Any frame counts as successful login.
	if f.Tag != mcs.TagLoginResponse {
		l.opt.Log.Infof("push login unexpected first frame %s", f)
		return l.handleFrame(ctx, conn, f)
	}
	l.onLoginResponse(f.Message.(*mcspb.LoginResponse))
	return StateListening, nil
}

func (l *Listener) onLoginResponse(resp *mcspb.LoginResponse) {
	// Error is only logged, connection stays and listening goes on.
	if e := resp.GetError(); e != nil {
		l.opt.Log.Errorf("push login response error code=%d message=%s", e.GetCode(), e.GetMessage())
		return
	}
	l.opt.Log.Infof("push logged in android_id=%d server_time=%d", l.creds.AndroidID, resp.GetServerTimestamp())
}

// listen is LISTENING state.
func (l *Listener) listen(ctx context.Context) (State, error) {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		if err := l.stopErr(ctx); err != nil {
			return StateDisconnected, err
		}
		return StateReconnecting, nil
	}
	for {
		f, err := conn.Receive(ctx)
		if err != nil {
			return l.connError(ctx, conn, err)
		}
		l.backoff.Reset()
		next, err := l.handleFrame(ctx, conn, f)
		if err != nil || next != StateListening {
			return next, err
		}
	}
}

func (l *Listener) handleFrame(ctx context.Context, conn mcs.Conn, f *mcs.Frame) (State, error) {
	switch m := f.Message.(type) {
	case *mcspb.DataMessageStanza:
		l.onData(ctx, m)

	case *mcspb.HeartbeatPing:
		l.stat.Heartbeats.Add(1)
		ack := &mcspb.HeartbeatAck{
			StreamId:             proto.Int32(m.GetStreamId() + 1),
			LastStreamIdReceived: proto.Int32(m.GetStreamId()),
			Status:               proto.Int64(m.GetStatus()),
		}
		if err := conn.Send(ctx, ack); err != nil {
			return l.connError(ctx, conn, err)
		}

	case *mcspb.Close:
		l.opt.Log.Infof("push server close conn=%s", conn)
		return StateReconnecting, nil

	case *mcspb.LoginResponse:
		l.onLoginResponse(m)

	case *mcspb.StreamErrorStanza:
		l.opt.Log.Errorf("push stream error %s", m)

	default:
		l.opt.Log.Debugf("push ignore frame %s", f)
	}
	return StateListening, nil
}

func (l *Listener) onData(ctx context.Context, stanza *mcspb.DataMessageStanza) {
	id := stanza.GetPersistentId()
	if id != "" && l.sess.seen(id) {
		l.stat.Duplicates.Add(1)
		l.opt.Log.Debugf("push duplicate persistent_id=%s", id)
		return
	}
	notification, err := DecryptStanza(l.creds.Keys, stanza)
	if err != nil {
		l.stat.Undeliverable.Add(1)
		l.opt.Log.Errorf("push undeliverable from=%s err=%v", stanza.GetFrom(), err)
	} else {
		l.stat.Delivered.Add(1)
		l.opt.Log.Debugf("push data persistent_id=%s", id)
		l.callback(ctx, notification, stanza)
	}
	// Undeliverable ids are acked too, server would redeliver them forever.
	l.sess.ack(id)
}

// connError maps connection errors to next state, other errors are fatal.
func (l *Listener) connError(ctx context.Context, conn mcs.Conn, err error) (State, error) {
	if serr := l.stopErr(ctx); serr != nil {
		return StateDisconnected, serr
	}
	switch errors.Cause(err) {
	case mcs.ErrConnReset:
		l.stat.ConnResets.Add(1)
		l.opt.Log.Infof("push connection reset, login again idle=%v err=%v", conn.SinceLastRecv(), err)
		l.resetPending = true
		return StateConnecting, nil
	case mcs.ErrTimeout, mcs.ErrClosed:
		l.opt.Log.Infof("push connection lost idle=%v err=%v", conn.SinceLastRecv(), err)
		return StateReconnecting, nil
	}
	return StateDisconnected, errors.Annotate(err, "push")
}

// reconnect is RECONNECTING state, enforces MinResetInterval.
func (l *Listener) reconnect(ctx context.Context) (State, error) {
	now := l.opt.Now()
	if last := l.sess.lastReset; !last.IsZero() {
		if since := now.Sub(last); since < l.opt.MinResetInterval {
			return StateDisconnected, errors.Annotatef(ErrTooManyReconnects, "previous reset %v ago, min interval %v", since, l.opt.MinResetInterval)
		}
	}
	l.sess.lastReset = now
	l.stat.Resets.Add(1)
	l.closeConn()
	return StateConnecting, l.stopErr(ctx)
}
