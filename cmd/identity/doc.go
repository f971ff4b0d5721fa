// Package identity implements ltigate's local user foundation.
//
// It contains the deterministic username derivation used when provisioning
// accounts from signed launches, password hashing for owner accounts, and
// the store interfaces consumed by the launch and admin layers.
package identity
