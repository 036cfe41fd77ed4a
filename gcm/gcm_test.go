package gcm

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyyp-go/hyyp/gcm/checkinpb"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, fun func(*http.Request) (*http.Response, error)) *Client {
	return &Client{
		HTTP:       &http.Client{Transport: &helpers.MockHTTP{Fun: fun}},
		Retries:    3,
		RetryDelay: time.Millisecond,
		Log:        log2.NewTest(t, log2.LDebug),
	}
}

func checkinResponse(t testing.TB, androidID, securityToken uint64) []byte {
	b, err := proto.Marshal(&checkinpb.AndroidCheckinResponse{
		StatsOk:       proto.Bool(true),
		AndroidId:     proto.Uint64(androidID),
		SecurityToken: proto.Uint64(securityToken),
	})
	require.NoError(t, err)
	return b
}

func readForm(t testing.TB, req *http.Request) url.Values {
	b, err := ioutil.ReadAll(req.Body)
	require.NoError(t, err)
	form, err := url.ParseQuery(string(b))
	require.NoError(t, err)
	return form
}

func TestCheckinRequest(t *testing.T) {
	t.Parallel()
	req := NewCheckinRequest(0, 0)
	assert.Nil(t, req.Id)
	assert.Nil(t, req.SecurityToken)
	assert.Equal(t, int32(3), *req.Version)
	assert.Equal(t, int32(0), *req.UserSerialNumber)
	assert.Equal(t, checkinpb.DeviceChromeBrowser, *req.Checkin.Type)
	assert.Equal(t, checkinpb.PlatformLinux, *req.Checkin.ChromeBuild.Platform)
	assert.Equal(t, "63.0.3234.0", *req.Checkin.ChromeBuild.ChromeVersion)
	assert.Equal(t, checkinpb.ChannelStable, *req.Checkin.ChromeBuild.Channel)

	req = NewCheckinRequest(4242, 0xfedcba9876543210)
	assert.Equal(t, int64(4242), req.GetId())
	assert.Equal(t, uint64(0xfedcba9876543210), req.GetSecurityToken())

	// security_token is fixed64 field 13
	b, err := proto.Marshal(&checkinpb.AndroidCheckinRequest{SecurityToken: proto.Uint64(1)})
	require.NoError(t, err)
	assert.Equal(t, helpers.MustHex("690100000000000000"), b)
}

func TestCheckInRefresh(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, DefaultCheckinURL, req.URL.String())
		assert.Equal(t, "application/x-protobuf", req.Header.Get("Content-Type"))
		b, err := ioutil.ReadAll(req.Body)
		require.NoError(t, err)
		var creq checkinpb.AndroidCheckinRequest
		require.NoError(t, proto.Unmarshal(b, &creq))
		assert.Equal(t, int64(11), creq.GetId())
		assert.Equal(t, uint64(22), creq.GetSecurityToken())
		return helpers.MockResponse(req, 200, checkinResponse(t, 11, 22))
	})
	resp, err := c.CheckIn(context.Background(), 11, 22)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), resp.GetAndroidId())
	assert.Equal(t, uint64(22), resp.GetSecurityToken())
	assert.Equal(t, 1, c.HTTP.Transport.(*helpers.MockHTTP).Calls())
}

func TestCheckInExhausted(t *testing.T) {
	t.Parallel()
	var calls int32
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		n := atomic.AddInt32(&calls, 1)
		if n%2 == 0 {
			return helpers.MockResponse(req, 503, []byte("busy"))
		}
		return nil, fmt.Errorf("network is unreachable")
	})
	_, err := c.CheckIn(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Equal(t, ErrRegistration, errors.Cause(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "network is unreachable")
}

func TestCheckInCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		cancel()
		return nil, fmt.Errorf("network is unreachable")
	})
	c.RetryDelay = time.Hour
	_, err := c.CheckIn(ctx, 0, 0)
	require.Error(t, err)
	assert.Equal(t, context.Canceled, errors.Cause(err))
}

func TestRegister(t *testing.T) {
	t.Parallel()
	var registerCalls, subscribeCalls int32
	var publicKey, authSecret []byte
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.String() {
		case DefaultCheckinURL:
			return helpers.MockResponse(req, 200, checkinResponse(t, 4242, 99))

		case DefaultRegisterURL:
			assert.Equal(t, "AidLogin 4242:99", req.Header.Get("Authorization"))
			form := readForm(t, req)
			assert.Equal(t, "org.chromium.linux", form.Get("app"))
			assert.True(t, strings.HasPrefix(form.Get("X-subtype"), "wp:receiver.push.com#"))
			assert.Equal(t, "4242", form.Get("device"))
			assert.Equal(t, DefaultServerKey, form.Get("sender"))
			if atomic.AddInt32(&registerCalls, 1) == 1 {
				return helpers.MockResponse(req, 200, []byte("Error=PHONE_REGISTRATION_ERROR"))
			}
			return helpers.MockResponse(req, 200, []byte("token=gcm-token-1"))

		case DefaultSubscribeURL:
			atomic.AddInt32(&subscribeCalls, 1)
			form := readForm(t, req)
			assert.Equal(t, "1234567", form.Get("authorized_entity"))
			assert.Equal(t, "https://fcm.googleapis.com/fcm/send/gcm-token-1", form.Get("endpoint"))
			var err error
			publicKey, err = base64.RawURLEncoding.DecodeString(form.Get("encryption_key"))
			require.NoError(t, err)
			authSecret, err = base64.RawURLEncoding.DecodeString(form.Get("encryption_auth"))
			require.NoError(t, err)
			return helpers.MockResponse(req, 200, []byte(`{"token":"fcm-token-1","pushSet":"ps"}`))
		}
		t.Errorf("unexpected request url=%s", req.URL)
		return helpers.MockResponse(req, 404, nil)
	})

	creds, err := c.Register(context.Background(), 1234567)
	require.NoError(t, err)
	assert.Equal(t, uint64(4242), creds.AndroidID)
	assert.Equal(t, uint64(99), creds.SecurityToken)
	assert.Equal(t, "gcm-token-1", creds.GCMToken)
	assert.Equal(t, "fcm-token-1", creds.FCMToken)
	assert.Equal(t, int32(2), registerCalls)
	assert.Equal(t, int32(1), subscribeCalls)
	assert.Len(t, creds.Keys.PublicKey, 65)
	assert.Equal(t, byte(4), creds.Keys.PublicKey[0])
	assert.Equal(t, creds.Keys.PublicKey, publicKey)
	assert.Equal(t, creds.Keys.AuthSecret, authSecret)
	require.NoError(t, creds.Validate())
}

func TestRegisterErrorIndicatorExhausted(t *testing.T) {
	t.Parallel()
	var calls int32
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() == DefaultCheckinURL {
			return helpers.MockResponse(req, 200, checkinResponse(t, 1, 2))
		}
		atomic.AddInt32(&calls, 1)
		return helpers.MockResponse(req, 200, []byte("Error=TOO_MANY_REGISTRATIONS"))
	})
	_, err := c.Register(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, ErrRegistration, errors.Cause(err))
	assert.Equal(t, int32(3), calls)
}

func TestSubscribeMissingToken(t *testing.T) {
	t.Parallel()
	var calls int32
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return helpers.MockResponse(req, 200, []byte(`{"error":"later"}`))
		}
		return helpers.MockResponse(req, 200, []byte(`{"token":"t3"}`))
	})
	keys, err := GenerateKeys(rand.Reader)
	require.NoError(t, err)
	token, err := c.Subscribe(context.Background(), 1, "g", keys)
	require.NoError(t, err)
	assert.Equal(t, "t3", token)

	c.Retries = 2
	atomic.StoreInt32(&calls, 0)
	_, err = c.Subscribe(context.Background(), 1, "g", keys)
	assert.Equal(t, ErrRegistration, errors.Cause(err))
}

func TestCredentialsBinary(t *testing.T) {
	t.Parallel()
	keys, err := GenerateKeys(rand.Reader)
	require.NoError(t, err)
	creds := &Credentials{
		AndroidID:     0xfedcba9876543210,
		SecurityToken: 77,
		AppID:         AppIDPrefix + "x",
		GCMToken:      "g",
		FCMToken:      "f",
		Keys:          keys,
	}
	b, err := creds.MarshalBinary()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"android_id":"18364758544493064720"`)

	var got Credentials
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, creds, &got)

	priv, err := got.Keys.ECDH()
	require.NoError(t, err)
	assert.Equal(t, keys.PublicKey, priv.PublicKey().Bytes())

	var bad Credentials
	err = bad.UnmarshalBinary([]byte(`{"android_id":"1","security_token":"2","fcm_token":"f"}`))
	require.Error(t, err)
	other, err := GenerateKeys(rand.Reader)
	require.NoError(t, err)
	mismatch := *creds
	mismatch.Keys.PublicKey = other.PublicKey
	assert.True(t, errors.IsNotValid(mismatch.Validate()))
}
