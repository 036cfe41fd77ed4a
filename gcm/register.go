package gcm

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/juju/errors"
)

// Register performs complete registration for senderID:
// check-in, GCM token, key generation, FCM subscription.
func (c *Client) Register(ctx context.Context, senderID int64) (*Credentials, error) {
	c.setDefaults()
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Annotate(err, "app id")
	}
	appID := AppIDPrefix + id.String()

	chk, err := c.CheckIn(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	if chk.GetAndroidId() == 0 || chk.GetSecurityToken() == 0 {
		return nil, errors.Wrapf(errors.Errorf("response=%s", chk), ErrRegistration, "checkin identity missing")
	}
	creds := &Credentials{
		AndroidID:     chk.GetAndroidId(),
		SecurityToken: chk.GetSecurityToken(),
		AppID:         appID,
	}
	if creds.GCMToken, err = c.register3(ctx, appID, creds.AndroidID, creds.SecurityToken); err != nil {
		return nil, err
	}
	if creds.Keys, err = GenerateKeys(c.Rand); err != nil {
		return nil, errors.Wrapf(err, ErrRegistration, "generate keys")
	}
	if creds.FCMToken, err = c.Subscribe(ctx, senderID, creds.GCMToken, creds.Keys); err != nil {
		return nil, err
	}
	c.Log.Infof("gcm registered sender=%d android_id=%d app_id=%s", senderID, creds.AndroidID, appID)
	return creds, nil
}

// register3 obtains GCM token for appID. Response body containing "Error" is retried.
func (c *Client) register3(ctx context.Context, appID string, androidID, securityToken uint64) (string, error) {
	form := url.Values{}
	form.Set("app", "org.chromium.linux")
	form.Set("X-subtype", appID)
	form.Set("device", strconv.FormatUint(androidID, 10))
	form.Set("sender", c.ServerKey)
	body := []byte(form.Encode())
	header := http.Header{
		"Authorization": []string{"AidLogin " + strconv.FormatUint(androidID, 10) + ":" + strconv.FormatUint(securityToken, 10)},
		"Content-Type":  []string{"application/x-www-form-urlencoded"},
	}

	var token string
	err := helpers.Retry(ctx, c.Retries, c.RetryDelay, func(attempt int) error {
		b, err := c.post(ctx, c.RegisterURL, header, body)
		if err != nil {
			c.Log.Debugf("gcm register attempt=%d err=%v", attempt, err)
			return err
		}
		if bytes.Contains(b, []byte("Error")) {
			c.Log.Errorf("gcm register attempt=%d response=%s", attempt, b)
			return errors.Errorf("register response=%s", b)
		}
		s := strings.TrimSpace(string(b))
		if !strings.HasPrefix(s, "token=") || len(s) == len("token=") {
			return errors.Errorf("register unexpected response=%q", truncate(b, 200))
		}
		token = s[len("token="):]
		return nil
	})
	if err != nil {
		return "", registrationError(err, "register", c.Retries)
	}
	return token, nil
}
