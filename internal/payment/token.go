package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidToken covers malformed, tampered or empty correlation tokens.
var ErrInvalidToken = errors.New("payment: invalid correlation token")

// Correlation ties a checkout back to the booking and the payer.
type Correlation struct {
	BookingID uint `json:"b"`
	UserID    uint `json:"u"`
}

// Metadata renders the correlation as gateway metadata.
func (c Correlation) Metadata() map[string]string {
	return map[string]string{
		MetaBookingID: strconv.FormatUint(uint64(c.BookingID), 10),
		MetaUserID:    strconv.FormatUint(uint64(c.UserID), 10),
	}
}

// CorrelationFromMetadata reads the correlation back from session metadata.
func CorrelationFromMetadata(meta map[string]string) (Correlation, error) {
	b, err1 := strconv.ParseUint(meta[MetaBookingID], 10, 64)
	u, err2 := strconv.ParseUint(meta[MetaUserID], 10, 64)
	if err1 != nil || err2 != nil || b == 0 || u == 0 {
		return Correlation{}, ErrInvalidToken
	}
	return Correlation{BookingID: uint(b), UserID: uint(u)}, nil
}

// TokenCodec signs correlations into opaque URL-safe tokens.
type TokenCodec struct {
	key []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{key: []byte(secret)}
}

func (c *TokenCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Encode returns payload.signature, both base64url.
func (c *TokenCodec) Encode(corr Correlation) (string, error) {
	raw, err := json.Marshal(corr)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + c.sign(payload), nil
}

func (c *TokenCodec) Decode(token string) (Correlation, error) {
	payload, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || payload == "" {
		return Correlation{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(payload))) {
		return Correlation{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Correlation{}, ErrInvalidToken
	}
	var corr Correlation
	if err := json.Unmarshal(raw, &corr); err != nil || corr.BookingID == 0 || corr.UserID == 0 {
		return Correlation{}, ErrInvalidToken
	}
	return corr, nil
}
