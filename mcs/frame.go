package mcs

import (
	"bufio"
	"fmt"
	"io"

	"github.com/golang/protobuf/proto"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/mcs/mcspb"
	"github.com/juju/errors"
)

const (
	// Version is sent before the first frame.
	Version = 41
	// Oldest server version known to be compatible, besides VersionLegacy.
	MinVersion    = 41
	VersionLegacy = 38

	DefaultReadLimit = 4 << 20
)

var (
	ErrTruncated          = fmt.Errorf("truncated input")
	ErrVarintOverflow     = fmt.Errorf("varint overflows 64 bits")
	ErrUnsupportedVersion = fmt.Errorf("unsupported protocol version")
	ErrUnknownTag         = fmt.Errorf("unknown tag")
	ErrFrameTooLarge      = fmt.Errorf("frame is too large")
)

// Tag identifies message kind of a frame. Values are stable wire indexes.
type Tag uint8

const (
	TagHeartbeatPing Tag = iota
	TagHeartbeatAck
	TagLoginRequest
	TagLoginResponse
	TagClose
	TagMessageStanza  // reserved
	TagPresenceStanza // reserved
	TagIqStanza
	TagDataMessageStanza
	TagBatchPresenceStanza // reserved
	TagStreamErrorStanza
	TagHttpRequest         // reserved
	TagHttpResponse        // reserved
	TagBindAccountRequest  // reserved
	TagBindAccountResponse // reserved
	TagTalkMetadata        // reserved
	tagCount
)

var tagNames = [tagCount]string{
	"HeartbeatPing",
	"HeartbeatAck",
	"LoginRequest",
	"LoginResponse",
	"Close",
	"MessageStanza",
	"PresenceStanza",
	"IqStanza",
	"DataMessageStanza",
	"BatchPresenceStanza",
	"StreamErrorStanza",
	"HttpRequest",
	"HttpResponse",
	"BindAccountRequest",
	"BindAccountResponse",
	"TalkMetadata",
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Reserved tags are valid on the wire but carry no known message type.
func (t Tag) Reserved() bool {
	return t < tagCount && t.newMessage() == nil
}

func (t Tag) newMessage() proto.Message {
	switch t {
	case TagHeartbeatPing:
		return &mcspb.HeartbeatPing{}
	case TagHeartbeatAck:
		return &mcspb.HeartbeatAck{}
	case TagLoginRequest:
		return &mcspb.LoginRequest{}
	case TagLoginResponse:
		return &mcspb.LoginResponse{}
	case TagClose:
		return &mcspb.Close{}
	case TagIqStanza:
		return &mcspb.IqStanza{}
	case TagDataMessageStanza:
		return &mcspb.DataMessageStanza{}
	case TagStreamErrorStanza:
		return &mcspb.StreamErrorStanza{}
	}
	return nil
}

// TagOf returns wire tag of message type.
// Panics on types outside of the table, that is a code error.
func TagOf(m proto.Message) Tag {
	switch m.(type) {
	case *mcspb.HeartbeatPing:
		return TagHeartbeatPing
	case *mcspb.HeartbeatAck:
		return TagHeartbeatAck
	case *mcspb.LoginRequest:
		return TagLoginRequest
	case *mcspb.LoginResponse:
		return TagLoginResponse
	case *mcspb.Close:
		return TagClose
	case *mcspb.IqStanza:
		return TagIqStanza
	case *mcspb.DataMessageStanza:
		return TagDataMessageStanza
	case *mcspb.StreamErrorStanza:
		return TagStreamErrorStanza
	}
	panic(fmt.Sprintf("code error mcs.TagOf unsupported message type %T", m))
}

// Frame is one decoded packet.
// Message is nil for reserved tags, Body is always the raw protobuf payload.
type Frame struct {
	Tag     Tag
	Body    []byte
	Message proto.Message
}

func (f *Frame) String() string {
	if f.Message == nil {
		return fmt.Sprintf("%s body=(%d)%x", f.Tag, len(f.Body), f.Body)
	}
	return fmt.Sprintf("%s %s", f.Tag, proto.CompactTextString(f.Message))
}

func versionSupported(v byte) bool {
	return v >= MinVersion || v == VersionLegacy
}

// FrameMarshal encodes m into wire frame, with version byte prefix if withVersion.
func FrameMarshal(m proto.Message, withVersion bool) ([]byte, error) {
	tag := TagOf(m)
	body, err := proto.Marshal(m)
	if err != nil {
		return nil, errors.Annotatef(err, "marshal %s", tag)
	}
	b := make([]byte, 0, 2+VarintLen(uint64(len(body)))+len(body))
	if withVersion {
		b = append(b, Version)
	}
	b = append(b, byte(tag))
	b = AppendVarint(b, uint64(len(body)))
	b = append(b, body...)
	return b, nil
}

// Encoder writes frames, version byte goes before the first one.
type Encoder struct {
	w           io.Writer
	versionSent bool
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode returns number of bytes written.
func (e *Encoder) Encode(m proto.Message) (int, error) {
	b, err := FrameMarshal(m, !e.versionSent)
	if err != nil {
		return 0, err
	}
	if err = helpers.WriteAll(e.w, b); err != nil {
		return 0, err
	}
	e.versionSent = true
	return len(b), nil
}

// Decoder reads frames, expects version byte before the first one.
type Decoder struct {
	r       *bufio.Reader
	max     uint32
	version int
}

func (d *Decoder) Attach(r *bufio.Reader, max uint32) {
	if max == 0 {
		max = DefaultReadLimit
	}
	d.max = max
	d.r = r
	d.version = -1
}

// Version returns server protocol version or -1 if not received yet.
func (d *Decoder) Version() int { return d.version }

// Read returns io.EOF only when stream ends cleanly between frames.
func (d *Decoder) Read() (*Frame, error) {
	if d.version < 0 {
		v, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if !versionSupported(v) {
			return nil, errors.Annotatef(ErrUnsupportedVersion, "version=%d", v)
		}
		d.version = int(v)
	}

	tagByte, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	tag := Tag(tagByte)
	if tag >= tagCount {
		return nil, errors.Annotatef(ErrUnknownTag, "tag=%d", tagByte)
	}

	length, err := ReadVarint(d.r)
	switch err {
	case nil:
	case io.EOF:
		return nil, errors.Annotate(ErrTruncated, "length")
	default:
		return nil, errors.Annotate(err, "length")
	}
	if length > uint64(d.max) {
		return nil, errors.Annotatef(ErrFrameTooLarge, "length=%d max=%d", length, d.max)
	}

	body := make([]byte, length)
	if _, err = io.ReadFull(d.r, body); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrTruncated
		}
		return nil, errors.Annotatef(err, "body tag=%s", tag)
	}

	f := &Frame{Tag: tag, Body: body}
	if m := tag.newMessage(); m != nil {
		if err = proto.Unmarshal(body, m); err != nil {
			return nil, errors.Annotatef(err, "unmarshal %s", tag)
		}
		f.Message = m
	}
	return f, nil
}
