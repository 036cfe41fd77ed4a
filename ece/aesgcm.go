// Package ece decrypts Web Push payloads in "aesgcm" content encoding
// (draft-ietf-webpush-encryption-04, draft-ietf-httpbis-encryption-encoding-03).
package ece

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/juju/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	KeyLen    = 16
	NonceLen  = 12
	TagLen    = 16
	SaltLen   = 16
	PadLenLen = 2
	// Default record size plus authentication tag.
	RecordSize = 4096 + TagLen
)

var ErrDecryption = fmt.Errorf("decryption failed")

// Decrypt recovers plaintext encrypted to our key pair.
// privateKeyDER is PKCS#8, dh is sender ephemeral public key (uncompressed point).
// Any failure is reported as ErrDecryption.
func Decrypt(privateKeyDER, authSecret, dh, salt, ciphertext []byte) ([]byte, error) {
	priv, err := ParsePrivateKey(privateKeyDER, nil)
	if err != nil {
		return nil, errors.Wrap(err, ErrDecryption)
	}
	return DecryptECDH(priv, authSecret, dh, salt, ciphertext)
}

func DecryptECDH(priv *ecdh.PrivateKey, authSecret, dh, salt, ciphertext []byte) ([]byte, error) {
	if len(salt) != SaltLen {
		return nil, errors.Wrapf(errors.Errorf("salt length=%d", len(salt)), ErrDecryption, "salt")
	}
	if len(authSecret) == 0 {
		return nil, errors.Wrapf(errors.Errorf("auth secret empty"), ErrDecryption, "auth")
	}
	senderKey, err := ecdh.P256().NewPublicKey(dh)
	if err != nil {
		return nil, errors.Wrapf(err, ErrDecryption, "dh")
	}
	shared, err := priv.ECDH(senderKey)
	if err != nil {
		return nil, errors.Wrapf(err, ErrDecryption, "ecdh")
	}

	cek, nonce, err := deriveKeys(shared, authSecret, salt, priv.PublicKey().Bytes(), dh)
	if err != nil {
		return nil, errors.Wrapf(err, ErrDecryption, "derive")
	}
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, errors.Wrapf(err, ErrDecryption, "cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrapf(err, ErrDecryption, "gcm")
	}

	if len(ciphertext) == 0 {
		return nil, errors.Wrapf(errors.Errorf("empty ciphertext"), ErrDecryption, "record")
	}
	plain := make([]byte, 0, len(ciphertext))
	for seq := uint64(0); len(ciphertext) > 0; seq++ {
		n := RecordSize
		if n > len(ciphertext) {
			n = len(ciphertext)
		}
		record := ciphertext[:n]
		ciphertext = ciphertext[n:]
		if len(record) <= TagLen {
			return nil, errors.Wrapf(errors.Errorf("record=%d length=%d", seq, len(record)), ErrDecryption, "record")
		}
		out, err := aead.Open(nil, recordNonce(nonce, seq), record, nil)
		if err != nil {
			return nil, errors.Wrapf(err, ErrDecryption, "record=%d", seq)
		}
		if out, err = unpad(out); err != nil {
			return nil, errors.Wrapf(err, ErrDecryption, "record=%d", seq)
		}
		plain = append(plain, out...)
	}
	return plain, nil
}

func deriveKeys(shared, authSecret, salt, receiverKey, senderKey []byte) (cek, nonce []byte, err error) {
	ikm := make([]byte, 32)
	if _, err = io.ReadFull(hkdf.New(sha256.New, shared, authSecret, []byte("Content-Encoding: auth\x00")), ikm); err != nil {
		return nil, nil, err
	}

	context := make([]byte, 0, 6+2+len(receiverKey)+2+len(senderKey))
	context = append(context, "P-256\x00"...)
	context = binary.BigEndian.AppendUint16(context, uint16(len(receiverKey)))
	context = append(context, receiverKey...)
	context = binary.BigEndian.AppendUint16(context, uint16(len(senderKey)))
	context = append(context, senderKey...)

	cek = make([]byte, KeyLen)
	info := append([]byte("Content-Encoding: aesgcm\x00"), context...)
	if _, err = io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), cek); err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceLen)
	info = append([]byte("Content-Encoding: nonce\x00"), context...)
	if _, err = io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), nonce); err != nil {
		return nil, nil, err
	}
	return cek, nonce, nil
}

// recordNonce xors sequence number into trailing 8 bytes of base nonce.
func recordNonce(base []byte, seq uint64) []byte {
	nonce := make([]byte, NonceLen)
	copy(nonce, base)
	x := binary.BigEndian.Uint64(nonce[NonceLen-8:]) ^ seq
	binary.BigEndian.PutUint64(nonce[NonceLen-8:], x)
	return nonce
}

func unpad(b []byte) ([]byte, error) {
	if len(b) < PadLenLen {
		return nil, errors.Errorf("record too short for padding length")
	}
	pad := int(binary.BigEndian.Uint16(b))
	if PadLenLen+pad > len(b) {
		return nil, errors.Errorf("padding=%d exceeds record=%d", pad, len(b))
	}
	for _, x := range b[PadLenLen : PadLenLen+pad] {
		if x != 0 {
			return nil, errors.Errorf("padding is not zero")
		}
	}
	return b[PadLenLen+pad:], nil
}
