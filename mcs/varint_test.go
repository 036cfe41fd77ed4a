package mcs_test

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/mcs"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintKnown(t *testing.T) {
	t.Parallel()
	cases := []struct {
		v   uint64
		hex string
	}{
		{0, "00"},
		{1, "01"},
		{127, "7f"},
		{128, "8001"},
		{300, "ac02"},
		{16384, "808001"},
		{math.MaxUint32, "ffffffff0f"},
		{math.MaxUint64, "ffffffffffffffffff01"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.hex, func(t *testing.T) {
			b := mcs.AppendVarint(nil, c.v)
			assert.Equal(t, helpers.MustHex(c.hex), b)
			assert.Equal(t, len(b), mcs.VarintLen(c.v))
			v, err := mcs.ReadVarint(bytes.NewReader(b))
			require.NoError(t, err)
			assert.Equal(t, c.v, v)
		})
	}
}

func TestVarintZeroIsOneByte(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []byte{0}, mcs.AppendVarint(nil, 0))
}

func TestVarintRoundTrip(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewSource(1))
	buf := make([]byte, 0, mcs.MaxVarintLen)
	for i := 0; i < 10000; i++ {
		v := uint64(rnd.Uint32())
		buf = mcs.AppendVarint(buf[:0], v)
		got, err := mcs.ReadVarint(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestVarintError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		hex    string
		expect error
	}{
		{"80", mcs.ErrTruncated},
		{"ff80", mcs.ErrTruncated},
		{"ffffffffffffffffffff01", mcs.ErrVarintOverflow},
	}
	for _, c := range cases {
		c := c
		t.Run(c.hex, func(t *testing.T) {
			_, err := mcs.ReadVarint(bytes.NewReader(helpers.MustHex(c.hex)))
			require.Error(t, err)
			assert.Equal(t, c.expect, errors.Cause(err))
		})
	}
}
