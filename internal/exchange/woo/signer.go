package woo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

const (
	headerAPIKey    = "x-api-key"
	headerSignature = "x-api-signature"
	headerTimestamp = "x-api-timestamp"
)

// signer produces WOO X v1 request headers. The signed payload is the
// alphabetically sorted parameter string, a pipe, and the millisecond
// timestamp.
type signer struct {
	apiKey    string
	secretKey []byte
	now       func() time.Time
}

func newSigner(apiKey, secretKey string) *signer {
	return &signer{apiKey: apiKey, secretKey: []byte(secretKey), now: time.Now}
}

func (s *signer) headers(params url.Values) map[string]string {
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)

	return map[string]string{
		headerAPIKey:    s.apiKey,
		headerSignature: s.sign(params.Encode() + "|" + timestamp),
		headerTimestamp: timestamp,
	}
}

func (s *signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}
