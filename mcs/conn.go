package mcs

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/helpers/atomic_clock"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/juju/errors"
)

const (
	DefaultAddr           = "mtalk.google.com:5228"
	DefaultReadTimeout    = 1 * time.Hour
	DefaultNetworkTimeout = 30 * time.Second
)

// Receive outcomes besides a frame.
var (
	ErrTimeout   = fmt.Errorf("timeout")
	ErrClosed    = fmt.Errorf("connection closed")
	ErrConnReset = fmt.Errorf("connection reset")
)

type Conn interface {
	Close() error
	Closed() bool
	// Receive blocks until a frame arrives or ReadTimeout expires.
	// Errors: ErrTimeout, ErrClosed, ErrConnReset (check with errors.Cause)
	// or any other transport/protocol error.
	Receive(context.Context) (*Frame, error)
	Send(context.Context, proto.Message) error
	SinceLastRecv() time.Duration
	Stat() *SessionStat
	String() string
}

type ConnOptions struct {
	Log *log2.Log
	TLS *tls.Config

	NetworkTimeout time.Duration
	ReadTimeout    time.Duration
	ReadLimit      uint32
}

func (o *ConnOptions) setDefaults() {
	if o.NetworkTimeout == 0 {
		o.NetworkTimeout = DefaultNetworkTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.ReadLimit == 0 {
		o.ReadLimit = DefaultReadLimit
	}
}

// DialContext opens TLS connection to MCS endpoint at addr (host:port).
func DialContext(ctx context.Context, dialer net.Dialer, addr string, opt ConnOptions) (Conn, error) {
	opt.setDefaults()
	if dialer.Timeout == 0 {
		dialer.Timeout = opt.NetworkTimeout
	}
	if deadline, _ := ctx.Deadline(); !deadline.IsZero() {
		if timeout := time.Until(deadline); timeout > 0 && timeout < dialer.Timeout {
			dialer.Timeout = timeout
		} else if timeout < 0 {
			return nil, context.Canceled
		}
	}

	config := opt.TLS
	if config == nil {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, errors.Annotatef(err, "addr=%s", addr)
		}
		config = config.Clone()
		config.ServerName = host
	}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "dial addr=%s", addr)
	}
	tc := tls.Client(raw, config)
	if err = tc.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, errors.Annotatef(err, "tls handshake addr=%s", addr)
	}
	return NewStreamConn(tc, opt), nil
}

type streamConn struct {
	sync.Mutex // serializes Send
	err        helpers.AtomicError
	last       atomic_clock.Clock
	dec        Decoder
	enc        *Encoder
	net        net.Conn
	opt        ConnOptions
	stat       SessionStat
}

var _ Conn = &streamConn{}

// NewStreamConn speaks MCS over any established connection, TLS or not.
func NewStreamConn(netConn net.Conn, opt ConnOptions) *streamConn {
	opt.setDefaults()
	c := &streamConn{
		net: netConn,
		opt: opt,
	}
	const tcpOverhead = 40
	statread := helpers.NewStatReader(c.net, &c.stat.Recv.Total.Size, tcpOverhead)
	c.enc = NewEncoder(helpers.NewStatWriter(c.net, &c.stat.Send.Total.Size, tcpOverhead))
	c.dec.Attach(bufio.NewReader(statread), opt.ReadLimit)
	c.stat.Conn.Add(1)
	c.last.SetNow()
	return c
}

func (c *streamConn) Close() error {
	err := c.die(ErrClosed)
	if errors.Cause(err) == ErrClosed {
		return nil
	}
	return err
}

func (c *streamConn) Closed() bool {
	_, ok := c.err.Load()
	return ok
}

func (c *streamConn) Receive(ctx context.Context) (*Frame, error) {
	if err, closed := c.err.Load(); closed {
		return nil, errors.Annotate(classify(err), "receive")
	}
	deadline := time.Now().Add(c.opt.ReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.net.SetReadDeadline(deadline); err != nil {
		err = c.die(errors.Annotate(err, "SetReadDeadline"))
		return nil, errors.Annotate(classify(err), "receive")
	}
	f, err := c.dec.Read()
	if err != nil {
		err = c.die(err)
		return nil, errors.Annotate(classify(err), "receive")
	}
	c.last.SetNow()
	c.stat.Recv.Register(f.Tag, len(f.Body))
	c.opt.Log.Debugf("mcs recv %s", f)
	return f, nil
}

func (c *streamConn) Send(ctx context.Context, m proto.Message) error {
	c.Lock()
	defer c.Unlock()
	if err, closed := c.err.Load(); closed {
		return errors.Annotate(classify(err), "send")
	}
	deadline := time.Now().Add(c.opt.NetworkTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.net.SetWriteDeadline(deadline); err != nil {
		err = c.die(errors.Annotate(err, "SetWriteDeadline"))
		return errors.Annotate(classify(err), "send")
	}
	tag := TagOf(m)
	n, err := c.enc.Encode(m)
	if err != nil {
		err = c.die(err)
		return errors.Annotatef(classify(err), "send %s", tag)
	}
	c.stat.Send.Register(tag, n)
	c.opt.Log.Debugf("mcs send %s %s", tag, proto.CompactTextString(m))
	return nil
}

func (c *streamConn) SinceLastRecv() time.Duration { return atomic_clock.Since(&c.last) }
func (c *streamConn) Stat() *SessionStat           { return &c.stat }

func (c *streamConn) String() string {
	return fmt.Sprintf("(remote=%s version=%d)", addrString(c.net.RemoteAddr()), c.dec.Version())
}

// die closes network connection once and returns the first error that killed it.
func (c *streamConn) die(e error) error {
	if err, found := c.err.StoreOnce(e); found {
		return err
	}
	_ = c.net.Close()

	// reformat some well known errors for easier log reading
	estr := e.Error()
	if neterr, ok := errors.Cause(e).(net.Error); ok && neterr.Timeout() {
		estr = "timeout"
	} else if strings.HasSuffix(estr, "i/o timeout") {
		estr = "timeout"
	} else if strings.HasSuffix(estr, "connection reset by peer") {
		estr = "closed by remote"
	}
	c.opt.Log.Debugf("mcs die +close local=%s remote=%s e=%s", addrString(c.net.LocalAddr()), addrString(c.net.RemoteAddr()), estr)
	return e
}

// classify maps low level errors to ErrTimeout, ErrClosed, ErrConnReset.
// Protocol errors are returned as is.
func classify(err error) error {
	cause := errors.Cause(err)
	switch cause {
	case ErrTimeout, ErrClosed, ErrConnReset:
		return err
	case io.EOF, io.ErrClosedPipe, net.ErrClosed:
		return errors.Wrap(err, ErrClosed)
	}
	if neterr, ok := cause.(net.Error); ok && neterr.Timeout() {
		return errors.Wrap(err, ErrTimeout)
	}
	estr := err.Error()
	switch {
	case strings.HasSuffix(estr, "i/o timeout"):
		return errors.Wrap(err, ErrTimeout)
	case strings.HasSuffix(estr, "connection reset by peer"):
		return errors.Wrap(err, ErrConnReset)
	case strings.HasSuffix(estr, "use of closed network connection"),
		strings.HasSuffix(estr, "broken pipe"),
		strings.HasSuffix(estr, io.ErrClosedPipe.Error()),
		strings.HasSuffix(estr, io.EOF.Error()):
		return errors.Wrap(err, ErrClosed)
	}
	return err
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
