// Package verify authenticates Slack Events API requests.
//
// Slack signs every request with HMAC-SHA256 over "v0:<timestamp>:<body>" and
// sends the result as "v0=<hex>" in X-Slack-Signature. Requests whose
// timestamp is more than five minutes away from the local clock are rejected
// as replays.
package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureHeader = "X-Slack-Signature"
	TimestampHeader = "X-Slack-Request-Timestamp"

	// ReplayWindowSeconds is fixed; it is not configurable.
	ReplayWindowSeconds = 300

	signatureVersion = "v0"
)

// Verify reports whether signatureHeader is the Slack signature of rawBody at
// timestampHeader under signingSecret, and the timestamp is within the replay
// window of nowEpochSeconds. Every failure yields false.
func Verify(rawBody, signatureHeader, timestampHeader, signingSecret string, nowEpochSeconds int64) bool {
	if signatureHeader == "" || timestampHeader == "" || signingSecret == "" {
		return false
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(timestampHeader), 10, 64)
	if err != nil {
		return false
	}
	if skew := nowEpochSeconds - ts; skew > ReplayWindowSeconds || skew < -ReplayWindowSeconds {
		return false
	}

	expected := Sign(rawBody, timestampHeader, signingSecret)
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// Sign returns the "v0=<hex>" signature Slack would send for body at timestamp.
func Sign(rawBody, timestamp, signingSecret string) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	_, _ = mac.Write([]byte(signatureVersion + ":" + timestamp + ":" + rawBody))
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}

// Verifier binds a signing secret and a clock for use by HTTP handlers.
type Verifier struct {
	secret string
	now    func() time.Time
}

func NewVerifier(signingSecret string, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: signingSecret, now: now}
}

func (v *Verifier) Verify(rawBody []byte, signatureHeader, timestampHeader string) bool {
	return Verify(string(rawBody), signatureHeader, timestampHeader, v.secret, v.now().Unix())
}
