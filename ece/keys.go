package ece

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/x509"

	"github.com/juju/errors"
)

// ParsePrivateKey parses PKCS#8 DER P-256 key. Non-empty public must match.
func ParsePrivateKey(der, public []byte) (*ecdh.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Annotate(err, "parse private key")
	}
	var priv *ecdh.PrivateKey
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		if priv, err = k.ECDH(); err != nil {
			return nil, errors.Annotate(err, "private key")
		}
	case *ecdh.PrivateKey:
		priv = k
	default:
		return nil, errors.NotValidf("private key type %T", key)
	}
	if priv.Curve() != ecdh.P256() {
		return nil, errors.NotValidf("private key curve %s", priv.Curve())
	}
	if len(public) != 0 && string(priv.PublicKey().Bytes()) != string(public) {
		return nil, errors.NotValidf("public key mismatch")
	}
	return priv, nil
}
