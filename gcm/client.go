// Package gcm registers a browser-like push receiver with Google check-in,
// GCM register and FCM subscribe backends.
package gcm

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/hyyp-go/hyyp/log2"
	"github.com/juju/errors"
)

const (
	DefaultCheckinURL   = "https://android.clients.google.com/checkin"
	DefaultRegisterURL  = "https://android.clients.google.com/c2dm/register3"
	DefaultSubscribeURL = "https://fcm.googleapis.com/fcm/connect/subscribe"
	DefaultSendURL      = "https://fcm.googleapis.com/fcm/send"

	// Public VAPID key of Chrome push service, URL-safe base64.
	DefaultServerKey = "BDOU99-h67HcA6JeFXHbSNMu7e2yNNu3RzoMj8TM4W88jITfq7ZmPvIM1Iv-4_l2LxQcYwhqby2xGpWwzjfAnG4"

	DefaultRetries    = 5
	DefaultRetryDelay = 1 * time.Second
	DefaultTimeout    = 30 * time.Second

	ChromeVersion = "63.0.3234.0"
	AppIDPrefix   = "wp:receiver.push.com#"
)

var ErrRegistration = fmt.Errorf("registration failed")

// Client holds explicit per-client configuration. Zero value fields get defaults.
type Client struct {
	HTTP         *http.Client
	CheckinURL   string
	RegisterURL  string
	SubscribeURL string
	SendURL      string
	ServerKey    string
	Retries      int
	RetryDelay   time.Duration
	Log          *log2.Log
	// Source of key material, crypto/rand if nil.
	Rand io.Reader
}

func NewClient(log *log2.Log) *Client {
	c := &Client{Log: log}
	c.setDefaults()
	return c
}

func (c *Client) setDefaults() {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: DefaultTimeout}
	}
	if c.CheckinURL == "" {
		c.CheckinURL = DefaultCheckinURL
	}
	if c.RegisterURL == "" {
		c.RegisterURL = DefaultRegisterURL
	}
	if c.SubscribeURL == "" {
		c.SubscribeURL = DefaultSubscribeURL
	}
	if c.SendURL == "" {
		c.SendURL = DefaultSendURL
	}
	if c.ServerKey == "" {
		c.ServerKey = DefaultServerKey
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
}

// post performs one request attempt. Non-2xx status is an error.
func (c *Client) post(ctx context.Context, url string, header http.Header, body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Annotatef(err, "url=%s", url)
	}
	req = req.WithContext(ctx)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "post url=%s", url)
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Annotatef(err, "read url=%s", url)
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("post url=%s status=%s body=%q", url, resp.Status, truncate(b, 200))
	}
	c.Log.Debugf("gcm post url=%s response=(%d)%q", url, len(b), truncate(b, 200))
	return b, nil
}

// registrationError keeps ErrRegistration as cause and last attempt error in message.
func registrationError(err error, op string, attempts int) error {
	if cause := errors.Cause(err); cause == context.Canceled || cause == context.DeadlineExceeded {
		return errors.Annotate(err, op)
	}
	return errors.Wrapf(err, ErrRegistration, "%s attempts=%d last error=(%v)", op, attempts, err)
}

func truncate(b []byte, max int) []byte {
	if len(b) > max {
		return b[:max]
	}
	return b
}
