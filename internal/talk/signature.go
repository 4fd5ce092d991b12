// Package talk implements the Nextcloud Talk bot protocol: inbound webhook
// verification and parsing, and the outbound bot message API.
package talk

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Headers carrying the inbound webhook signature and its timestamp.
const (
	HeaderSignature = "X-Nextcloud-Talk-Signature"
	HeaderTimestamp = "X-Nextcloud-Talk-Timestamp"
)

// ErrAuthentication covers every way an inbound webhook can fail
// verification: bad signature, missing or malformed headers, stale
// timestamp. Callers must not be able to tell these apart.
var ErrAuthentication = errors.New("talk: authentication failed")

// Sign computes the hex HMAC-SHA256 of prefix+payload under secret.
func Sign(secret, prefix string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(prefix))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier validates inbound webhook signatures with replay protection.
type Verifier struct {
	window time.Duration
	now    func() time.Time
}

// NewVerifier creates a Verifier accepting timestamps within the given
// freshness window on either side of the current time.
func NewVerifier(window time.Duration) *Verifier {
	return &Verifier{window: window, now: time.Now}
}

// decoySecret stands in when the secret is empty. The full MAC still
// runs, so that rejection takes as long as a signature mismatch would.
const decoySecret = "talkbridge-decoy-not-a-real-secret"

// Verify checks the request's signature headers against the bot secret.
// The signing string is the timestamp header value concatenated with the
// raw body. Returns ErrAuthentication on any mismatch. An empty secret
// always fails, in the same time a wrong signature takes.
func (v *Verifier) Verify(secret string, header http.Header, body []byte) error {
	known := secret != ""
	if !known {
		secret = decoySecret
	}

	supplied := strings.ToLower(header.Get(HeaderSignature))
	tsRaw := header.Get(HeaderTimestamp)
	if supplied == "" || tsRaw == "" {
		return ErrAuthentication
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return ErrAuthentication
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.window || age < -v.window {
		return ErrAuthentication
	}

	expected := Sign(secret, tsRaw, body)
	match := hmac.Equal([]byte(expected), []byte(supplied))
	if !known || !match {
		return ErrAuthentication
	}
	return nil
}
