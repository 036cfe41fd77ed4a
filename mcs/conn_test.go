package mcs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/mcs/mcspb"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeConn(t testing.TB, readTimeout time.Duration) (*streamConn, net.Conn) {
	client, server := net.Pipe()
	c := NewStreamConn(client, ConnOptions{
		Log:         log2.NewTest(t, log2.LDebug),
		ReadTimeout: readTimeout,
	})
	t.Cleanup(func() {
		_ = c.Close()
		_ = server.Close()
	})
	return c, server
}

func TestConnExchange(t *testing.T) {
	t.Parallel()
	c, server := newPipeConn(t, time.Second)
	ctx := context.Background()

	received := make(chan *Frame, 1)
	go func() {
		dec := &Decoder{}
		dec.Attach(bufio.NewReader(server), 0)
		f, err := dec.Read()
		if err != nil {
			t.Error(err)
			return
		}
		received <- f
		_, _ = NewEncoder(server).Encode(&mcspb.HeartbeatPing{StreamId: proto.Int32(3), Status: proto.Int64(9)})
	}()

	require.NoError(t, c.Send(ctx, &mcspb.LoginRequest{Id: proto.String("chrome-63.0.3234.0")}))
	f := <-received
	assert.Equal(t, TagLoginRequest, f.Tag)

	f, err := c.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, TagHeartbeatPing, f.Tag)
	ping := f.Message.(*mcspb.HeartbeatPing)
	assert.Equal(t, int32(3), ping.GetStreamId())
	assert.Equal(t, int64(9), ping.GetStatus())

	stat := c.Stat()
	assert.Equal(t, int64(1), stat.Send.Total.Count.Value())
	assert.Equal(t, int64(1), stat.Recv.Heartbeat.Count.Value())
	assert.Contains(t, c.String(), "version=41")
	assert.True(t, c.SinceLastRecv() < time.Second, "idle=%v", c.SinceLastRecv())
}

func TestConnTimeout(t *testing.T) {
	t.Parallel()
	c, _ := newPipeConn(t, 20*time.Millisecond)
	f, err := c.Receive(context.Background())
	require.Error(t, err)
	assert.Nil(t, f)
	assert.Equal(t, ErrTimeout, errors.Cause(err))
	assert.True(t, c.Closed())

	// dead connection keeps reporting the same outcome
	_, err = c.Receive(context.Background())
	assert.Equal(t, ErrTimeout, errors.Cause(err))
}

func TestConnRemoteClose(t *testing.T) {
	t.Parallel()
	c, server := newPipeConn(t, time.Second)
	require.NoError(t, server.Close())
	_, err := c.Receive(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrClosed, errors.Cause(err))
}

func TestConnRemoteCloseSend(t *testing.T) {
	t.Parallel()
	c, server := newPipeConn(t, time.Second)
	require.NoError(t, server.Close())
	err := c.Send(context.Background(), &mcspb.HeartbeatAck{StreamId: proto.Int32(1)})
	require.Error(t, err)
	assert.Equal(t, ErrClosed, errors.Cause(err))
	assert.True(t, c.Closed())
}

func TestConnLocalClose(t *testing.T) {
	t.Parallel()
	c, _ := newPipeConn(t, time.Second)
	assert.False(t, c.Closed())
	require.NoError(t, c.Close())
	assert.True(t, c.Closed())
	err := c.Send(context.Background(), &mcspb.Close{})
	assert.Equal(t, ErrClosed, errors.Cause(err))
	_, err = c.Receive(context.Background())
	assert.Equal(t, ErrClosed, errors.Cause(err))
}

func TestConnProtocolError(t *testing.T) {
	t.Parallel()
	c, server := newPipeConn(t, time.Second)
	go func() { _, _ = server.Write([]byte{Version, 42, 0}) }()
	_, err := c.Receive(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTag, errors.Cause(err))
	assert.True(t, c.Closed())
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "custom timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err    error
		expect error
	}{
		{io.EOF, ErrClosed},
		{io.ErrClosedPipe, ErrClosed},
		{errors.Annotate(io.EOF, "header"), ErrClosed},
		{fmt.Errorf("read tcp 10.0.0.2:5000->1.2.3.4:5228: read: connection reset by peer"), ErrConnReset},
		{fmt.Errorf("read tcp 10.0.0.2:5000->1.2.3.4:5228: i/o timeout"), ErrTimeout},
		{fmt.Errorf("read tcp 10.0.0.2:5000->1.2.3.4:5228: use of closed network connection"), ErrClosed},
		{&net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}, ErrTimeout},
		{ErrTruncated, ErrTruncated},
	}
	for _, c := range cases {
		c := c
		t.Run(c.err.Error(), func(t *testing.T) {
			assert.Equal(t, c.expect, errors.Cause(classify(c.err)))
		})
	}
}
