package certstore

import (
	"bytes"
	"time"
)

// Reason explains why a cached record cannot be reused. The zero value means
// reuse is fine.
type Reason string

// Renewal reasons, one per failed check so callers can log what forced
// regeneration.
const (
	ReasonNone                Reason = ""
	ReasonMissing             Reason = "no existing certificate"
	ReasonMissingKey          Reason = "existing certificate has no private key"
	ReasonIssuerChanged       Reason = "issuer does not match the current authority subject"
	ReasonAuthorityNewer      Reason = "authority was rotated after the certificate was issued"
	ReasonAuthorityKeyChanged Reason = "certificate was signed by a different authority key"
	ReasonExpiringSoon        Reason = "remaining validity does not cover the minimum run window"
)

// EvaluateReuse decides whether an existing record can be reused instead of
// regenerated. It is a pure function over the record fields and the clock.
//
// A nil authority (root self-check during init) skips the issuer and rotation
// checks, which are vacuous for a record measured against itself. Rotation is
// caught two ways, neither a signature verification: a timestamp comparison
// for an authority recreated after the leaf was issued, and a key identifier
// comparison for an authority recreated within the same second, where the
// one-second granularity of X.509 validity makes the timestamps equal. The
// validity check is strict: a record whose notAfter equals now+minRun is
// already insufficient.
func EvaluateReuse(existing, authority *Record, minRun time.Duration, now time.Time) (bool, Reason) {
	if existing == nil {
		return false, ReasonMissing
	}

	if existing.KeyPEM() == nil {
		return false, ReasonMissingKey
	}

	if authority != nil {
		if existing.Issuer() != authority.Subject() {
			return false, ReasonIssuerChanged
		}

		if existing.NotBefore().Before(authority.NotBefore()) {
			return false, ReasonAuthorityNewer
		}

		if !bytes.Equal(existing.Certificate().AuthorityKeyId, authority.Certificate().SubjectKeyId) {
			return false, ReasonAuthorityKeyChanged
		}
	}

	if !existing.NotAfter().After(now.Add(minRun)) {
		return false, ReasonExpiringSoon
	}

	return true, ReasonNone
}
