package gcm

import (
	"crypto/ecdh"
	"crypto/x509"
	"encoding/json"
	"io"

	"github.com/hyyp-go/hyyp/ece"
	"github.com/juju/errors"
)

const AuthSecretLen = 16

// Credentials are produced once by Register and must be kept by caller.
type Credentials struct {
	AndroidID     uint64 `json:"android_id,string"`
	SecurityToken uint64 `json:"security_token,string"`
	AppID         string `json:"app_id"`
	GCMToken      string `json:"gcm_token"`
	FCMToken      string `json:"fcm_token"`
	Keys          Keys   `json:"keys"`
}

// Keys decrypt inbound payloads. PublicKey and AuthSecret are sent once at subscribe.
type Keys struct {
	// Uncompressed P-256 point, 65 bytes.
	PublicKey []byte `json:"public"`
	// PKCS#8 DER.
	PrivateKey []byte `json:"private"`
	AuthSecret []byte `json:"secret"`
}

func (c *Credentials) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

func (c *Credentials) UnmarshalBinary(b []byte) error {
	var tmp Credentials
	if err := json.Unmarshal(b, &tmp); err != nil {
		return errors.Annotate(err, "credentials")
	}
	if err := tmp.Validate(); err != nil {
		return err
	}
	*c = tmp
	return nil
}

func (c *Credentials) Validate() error {
	if c.AndroidID == 0 || c.SecurityToken == 0 {
		return errors.NotValidf("credentials without android_id/security_token")
	}
	if c.FCMToken == "" {
		return errors.NotValidf("credentials without fcm_token")
	}
	if _, err := c.Keys.ECDH(); err != nil {
		return err
	}
	if len(c.Keys.AuthSecret) != AuthSecretLen {
		return errors.NotValidf("credentials auth secret length=%d", len(c.Keys.AuthSecret))
	}
	return nil
}

// GenerateKeys creates P-256 key pair and random auth secret.
func GenerateKeys(rand io.Reader) (Keys, error) {
	priv, err := ecdh.P256().GenerateKey(rand)
	if err != nil {
		return Keys{}, errors.Annotate(err, "generate P-256")
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return Keys{}, errors.Annotate(err, "marshal private key")
	}
	secret := make([]byte, AuthSecretLen)
	if _, err = io.ReadFull(rand, secret); err != nil {
		return Keys{}, errors.Annotate(err, "auth secret")
	}
	return Keys{
		// same as SubjectPublicKeyInfo DER without 26 byte ASN.1 prefix
		PublicKey:  priv.PublicKey().Bytes(),
		PrivateKey: der,
		AuthSecret: secret,
	}, nil
}

// ECDH parses PrivateKey and checks it matches PublicKey.
func (k *Keys) ECDH() (*ecdh.PrivateKey, error) {
	return ece.ParsePrivateKey(k.PrivateKey, k.PublicKey)
}
