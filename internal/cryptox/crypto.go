// Package cryptox holds the key handling and message decryption a push
// subscriber needs: P-256 key pairs, base64 key encoding and RFC 8291
// ("aes128gcm") payload decryption.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	saltLen     = 16
	headerLen   = saltLen + 4 + 1
	minRecord   = 18
	cekLen      = 16
	nonceLen    = 12
	AuthKeySize = 16
)

var (
	ErrMalformedPayload = errors.New("malformed push payload")
	ErrInvalidKey       = errors.New("invalid key")
)

var (
	webPushInfo = []byte("WebPush: info\x00")
	cekInfo     = []byte("Content-Encoding: aes128gcm\x00")
	nonceInfo   = []byte("Content-Encoding: nonce\x00")
)

// GenerateKeyPair creates the subscriber's P-256 key pair.
func GenerateKeyPair() (*ecdh.PrivateKey, error) {
	return ecdh.P256().GenerateKey(rand.Reader)
}

// LoadPrivateKey restores a key produced by (*ecdh.PrivateKey).Bytes.
func LoadPrivateKey(b []byte) (*ecdh.PrivateKey, error) {
	k, err := ecdh.P256().NewPrivateKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return k, nil
}

// EncodeKey renders key material the way push subscriptions carry it:
// unpadded base64url.
func EncodeKey(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeKey accepts base64url or standard base64, padded or not.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return b, nil
}

// DecodeApplicationServerKey decodes the server's public key and checks its
// shape: 65 bytes in uncompressed point form. Curve membership is left to
// the push service, which is the party that verifies VAPID signatures.
func DecodeApplicationServerKey(s string) ([]byte, error) {
	b, err := DecodeKey(s)
	if err != nil {
		return nil, err
	}
	if len(b) != 65 || b[0] != 0x04 {
		return nil, fmt.Errorf("%w: application server key must be a 65-byte uncompressed point", ErrInvalidKey)
	}
	return b, nil
}

// Decrypt opens an aes128gcm-encoded push message addressed to priv.
//
// Layout: salt(16) | rs(4) | idlen(1) | keyid(idlen) | records...
// where keyid is the sender's ephemeral public key.
func Decrypt(priv *ecdh.PrivateKey, authSecret, body []byte) ([]byte, error) {
	if len(body) < headerLen {
		return nil, fmt.Errorf("%w: short header", ErrMalformedPayload)
	}
	salt := body[:saltLen]
	rs := binary.BigEndian.Uint32(body[saltLen : saltLen+4])
	idLen := int(body[saltLen+4])
	if rs < minRecord || len(body) < headerLen+idLen {
		return nil, fmt.Errorf("%w: bad record size or key id", ErrMalformedPayload)
	}
	senderKey := body[headerLen : headerLen+idLen]
	ciphertext := body[headerLen+idLen:]
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrMalformedPayload)
	}

	senderPub, err := ecdh.P256().NewPublicKey(senderKey)
	if err != nil {
		return nil, fmt.Errorf("%w: sender key: %v", ErrMalformedPayload, err)
	}
	shared, err := priv.ECDH(senderPub)
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}

	receiverKey := priv.PublicKey().Bytes()
	info := make([]byte, 0, len(webPushInfo)+len(receiverKey)+len(senderKey))
	info = append(info, webPushInfo...)
	info = append(info, receiverKey...)
	info = append(info, senderKey...)

	ikm, err := expand(hkdf.Extract(sha256.New, shared, authSecret), info, 32)
	if err != nil {
		return nil, err
	}
	prk := hkdf.Extract(sha256.New, ikm, salt)
	cek, err := expand(prk, cekInfo, cekLen)
	if err != nil {
		return nil, err
	}
	baseNonce, err := expand(prk, nonceInfo, nonceLen)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	var out []byte
	for seq := uint64(0); len(ciphertext) > 0; seq++ {
		n := min(int(rs), len(ciphertext))
		record := ciphertext[:n]
		ciphertext = ciphertext[n:]

		plain, err := gcm.Open(nil, recordNonce(baseNonce, seq), record, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedPayload, seq, err)
		}
		plain, err = unpad(plain, len(ciphertext) == 0)
		if err != nil {
			return nil, err
		}
		out = append(out, plain...)
	}
	return out, nil
}

func expand(prk, info []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, prk, info), out); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return out, nil
}

// recordNonce XORs the record sequence number into the low 8 bytes.
func recordNonce(base []byte, seq uint64) []byte {
	nonce := make([]byte, len(base))
	copy(nonce, base)
	var s [8]byte
	binary.BigEndian.PutUint64(s[:], seq)
	for i := range s {
		nonce[nonceLen-8+i] ^= s[i]
	}
	return nonce
}

// unpad strips trailing zero padding and the delimiter: 0x02 ends the last
// record, 0x01 any other.
func unpad(p []byte, last bool) ([]byte, error) {
	i := len(p) - 1
	for i >= 0 && p[i] == 0 {
		i--
	}
	if i < 0 {
		return nil, fmt.Errorf("%w: missing padding delimiter", ErrMalformedPayload)
	}
	want := byte(1)
	if last {
		want = 2
	}
	if p[i] != want {
		return nil, fmt.Errorf("%w: unexpected padding delimiter %#x", ErrMalformedPayload, p[i])
	}
	return p[:i], nil
}
