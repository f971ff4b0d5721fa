// Package oauth1 implements the two-legged request-signature verification
// used by signed launches (RFC 5849, HMAC-SHA1 only).
//
// The package owns the signature math and the protocol-parameter checks;
// everything policy-shaped (secret lookup, client-key existence,
// timestamp/nonce freshness) is delegated to a Validator supplied by the
// caller. A verification failure is always reported as a rejection, never
// a panic, so the launch flow can turn it into a denial.
package oauth1
