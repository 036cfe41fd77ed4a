// Package push receives FCM push notifications as a Chrome browser would:
// Register once, keep credentials, then Listen on MCS socket.
package push

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyyp-go/hyyp/ece"
	"github.com/hyyp-go/hyyp/gcm"
	"github.com/hyyp-go/hyyp/mcs/mcspb"
	"github.com/juju/errors"
)

var (
	ErrMalformedPayload  = fmt.Errorf("malformed payload")
	ErrTooManyReconnects = fmt.Errorf("too many connection reset attempts")
	ErrClosing           = fmt.Errorf("closing")
)

// Callback receives decrypted JSON object and raw stanza,
// once per newly delivered message in receipt order.
// It runs inside receive loop, long work should be handed off.
type Callback func(ctx context.Context, notification map[string]interface{}, stanza *mcspb.DataMessageStanza)

// Register creates credentials for senderID. client may be nil for defaults.
// Failure cause is gcm.ErrRegistration.
func Register(ctx context.Context, senderID int64, client *gcm.Client) (*gcm.Credentials, error) {
	if client == nil {
		client = gcm.NewClient(nil)
	}
	return client.Register(ctx, senderID)
}

// Listen runs until fatal error, context cancel or Close of underlying Listener.
// alreadySeen persistent ids are reported to server at every login.
func Listen(ctx context.Context, creds *gcm.Credentials, callback Callback, alreadySeen []string, opt Options) error {
	l, err := NewListener(creds, callback, alreadySeen, opt)
	if err != nil {
		return err
	}
	return l.Run(ctx)
}

// DecryptStanza extracts ephemeral key and salt from app data and decrypts raw data.
// Errors: ece.ErrDecryption or ErrMalformedPayload (check with errors.Cause).
func DecryptStanza(keys gcm.Keys, stanza *mcspb.DataMessageStanza) (map[string]interface{}, error) {
	dh, err := appDataParam(stanza, "crypto-key", "dh")
	if err != nil {
		return nil, err
	}
	salt, err := appDataParam(stanza, "encryption", "salt")
	if err != nil {
		return nil, err
	}
	plain, err := ece.Decrypt(keys.PrivateKey, keys.AuthSecret, dh, salt, stanza.GetRawData())
	if err != nil {
		return nil, errors.Annotatef(err, "persistent_id=%s", stanza.GetPersistentId())
	}
	var notification map[string]interface{}
	if err = json.Unmarshal(plain, &notification); err != nil || notification == nil {
		if err == nil {
			err = errors.Errorf("not an object")
		}
		return nil, errors.Wrapf(err, ErrMalformedPayload, "persistent_id=%s plain=%q error=(%v)", stanza.GetPersistentId(), truncate(plain, 100), err)
	}
	return notification, nil
}

// appDataParam finds name=value parameter in app data key, value is base64url decoded.
// Header may carry several parameters separated with ';' or ','.
func appDataParam(stanza *mcspb.DataMessageStanza, key, name string) ([]byte, error) {
	header, ok := stanza.AppDataValue(key)
	if !ok {
		return nil, errors.Wrapf(errors.Errorf("app_data %s missing", key), ece.ErrDecryption, "header")
	}
	prefix := name + "="
	for _, param := range strings.FieldsFunc(header, func(r rune) bool { return r == ';' || r == ',' }) {
		param = strings.TrimSpace(param)
		if !strings.HasPrefix(param, prefix) {
			continue
		}
		b, err := decodeBase64URL(param[len(prefix):])
		if err != nil {
			return nil, errors.Wrapf(err, ece.ErrDecryption, "app_data %s", key)
		}
		return b, nil
	}
	return nil, errors.Wrapf(errors.Errorf("app_data %s=%q without %s", key, header, prefix), ece.ErrDecryption, "header")
}

// decodeBase64URL accepts both padded and unpadded input.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func truncate(b []byte, max int) []byte {
	if len(b) > max {
		return b[:max]
	}
	return b
}
