package oauth1

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrRejected is the kind wrapped by every verification failure. Callers
// only need errors.Is(err, ErrRejected); the wrapped detail is for logs.
var ErrRejected = errors.New("oauth1: request rejected")

func rejection(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// Protocol parameter names.
const (
	paramConsumerKey     = "oauth_consumer_key"
	paramSignature       = "oauth_signature"
	paramSignatureMethod = "oauth_signature_method"
	paramTimestamp       = "oauth_timestamp"
	paramNonce           = "oauth_nonce"
	paramVersion         = "oauth_version"

	methodHMACSHA1 = "HMAC-SHA1"
)

// VerifyRequest validates a signed launch request against the policy in v.
// baseURL is the absolute URL the consumer signed against (the caller knows
// the externally visible scheme/host); the request's form must be parsable
// as application/x-www-form-urlencoded.
//
// All policy checks and the signature comparison are evaluated before the
// combined verdict, keeping the unknown-key path on the same rejection
// route as a wrong signature.
func VerifyRequest(r *http.Request, v Validator, baseURL string) error {
	if r == nil || v == nil {
		return rejection("nil request or validator")
	}

	if err := r.ParseForm(); err != nil {
		return rejection("malformed form: %v", err)
	}

	if v.TransportSecurityRequired() && !strings.HasPrefix(strings.ToLower(baseURL), "https://") {
		return rejection("transport security required")
	}

	clientKey := r.Form.Get(paramConsumerKey)
	signature := r.Form.Get(paramSignature)
	sigMethod := r.Form.Get(paramSignatureMethod)
	timestamp := r.Form.Get(paramTimestamp)
	nonce := r.Form.Get(paramNonce)

	if clientKey == "" || signature == "" || sigMethod == "" || timestamp == "" || nonce == "" {
		return rejection("missing protocol parameters")
	}
	if version := r.Form.Get(paramVersion); version != "" && version != "1.0" {
		return rejection("unsupported version %q", version)
	}
	if sigMethod != methodHMACSHA1 {
		return rejection("unsupported signature method %q", sigMethod)
	}

	minLen, maxLen := v.NonceLength()
	if len(nonce) < minLen || len(nonce) > maxLen {
		return rejection("nonce length %d outside [%d,%d]", len(nonce), minLen, maxLen)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || ts <= 0 {
		return rejection("invalid timestamp %q", timestamp)
	}

	// Policy checks. Evaluate everything; unknown keys proceed with the
	// dummy secret so their rejection is indistinguishable from a bad
	// signature.
	ctx := r.Context()
	inWindow := timestampInWindow(ts, time.Now(), v.TimestampLifetime())
	keyOK := v.ClientKeyExists(ctx, clientKey)
	fresh := v.ValidateTimestampAndNonce(ctx, clientKey, ts, nonce)
	secret := v.ClientSecret(ctx, clientKey)

	params := collectSigningParams(r)
	base, err := SignatureBaseString(r.Method, baseURL, params)
	if err != nil {
		return rejection("base string: %v", err)
	}
	expected := HMACSHA1Signature(base, secret, "")
	sigOK := signatureMatches(signature, expected)

	switch {
	case !sigOK:
		return rejection("signature mismatch")
	case !keyOK:
		return rejection("unknown client key")
	case !inWindow:
		return rejection("timestamp outside acceptance window")
	case !fresh:
		return rejection("stale timestamp/nonce")
	}
	return nil
}

// timestampInWindow reports whether ts is within lifetime of now in either
// direction. A non-positive lifetime disables the check.
func timestampInWindow(ts int64, now time.Time, lifetime time.Duration) bool {
	if lifetime <= 0 {
		return true
	}
	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	return skew <= int64(lifetime/time.Second)
}

// collectSigningParams gathers query and body parameters for the base
// string, excluding the signature itself.
func collectSigningParams(r *http.Request) url.Values {
	params := url.Values{}
	for k, vs := range r.Form {
		if k == paramSignature {
			continue
		}
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return params
}
