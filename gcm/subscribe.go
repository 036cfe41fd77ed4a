package gcm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hyyp-go/hyyp/helpers"
	"github.com/juju/errors"
)

type subscribeResponse struct {
	Token   string `json:"token"`
	PushSet string `json:"pushSet"`
}

// Subscribe exchanges GCM token and encryption keys for FCM token addressable by senderID.
func (c *Client) Subscribe(ctx context.Context, senderID int64, gcmToken string, keys Keys) (string, error) {
	c.setDefaults()
	form := url.Values{}
	form.Set("authorized_entity", strconv.FormatInt(senderID, 10))
	form.Set("endpoint", c.SendURL+"/"+gcmToken)
	form.Set("encryption_key", base64.RawURLEncoding.EncodeToString(keys.PublicKey))
	form.Set("encryption_auth", base64.RawURLEncoding.EncodeToString(keys.AuthSecret))
	body := []byte(form.Encode())
	header := http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}}

	var token string
	err := helpers.Retry(ctx, c.Retries, c.RetryDelay, func(attempt int) error {
		b, err := c.post(ctx, c.SubscribeURL, header, body)
		if err != nil {
			c.Log.Debugf("gcm subscribe attempt=%d err=%v", attempt, err)
			return err
		}
		var resp subscribeResponse
		if err = json.Unmarshal(b, &resp); err != nil {
			return errors.Annotatef(err, "subscribe response=%q", truncate(b, 200))
		}
		if resp.Token == "" {
			c.Log.Errorf("gcm subscribe attempt=%d response=%s", attempt, b)
			return errors.Errorf("subscribe token missing response=%q", truncate(b, 200))
		}
		token = resp.Token
		return nil
	})
	if err != nil {
		return "", registrationError(err, "subscribe", c.Retries)
	}
	return token, nil
}
