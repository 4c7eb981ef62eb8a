package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
)

const partDelimiter = "|"

// Signer produces and verifies the integrity signature over a transaction's
// immutable fields. An empty key disables signing; verification of unsigned
// rows then reports ErrSignatureMissing rather than success.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer with the server-held secret. The key is never
// exposed to clients and is expected to be rotated out-of-band.
func NewSigner(key string) *Signer {
	return &Signer{key: []byte(key)}
}

// Enabled reports whether a signing key is configured.
func (s *Signer) Enabled() bool {
	return len(s.key) > 0
}

// Canonical builds the deterministic serialization of the transaction's
// immutable fields: amount normalized to two decimals, the creation timestamp
// normalized to UTC RFC3339, optional counterparty fields listed only when
// present, and all key:value parts joined sorted lexicographically. The result
// does not depend on field insertion order.
func Canonical(txn domain.Transaction) string {
	parts := map[string]string{
		"transaction_id": txn.TransactionID,
		"direction":      string(txn.Direction),
		"amount":         txn.Amount.StringFixed(2),
		"concept":        txn.Concept,
		"tracking_key":   txn.TrackingKey,
		"created_at":     txn.CreatedAt.UTC().Format(time.RFC3339),
	}
	if txn.ClabeAccountID != nil {
		parts["clabe_account_id"] = *txn.ClabeAccountID
	}
	addCounterparty(parts, "beneficiary", txn.Beneficiary)
	addCounterparty(parts, "payer", txn.Payer)

	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	joined := make([]string, 0, len(keys))
	for _, k := range keys {
		joined = append(joined, k+":"+parts[k])
	}
	return strings.Join(joined, partDelimiter)
}

func addCounterparty(parts map[string]string, prefix string, cp domain.Counterparty) {
	if cp.Account != "" {
		parts[prefix+"_account"] = cp.Account
	}
	if cp.Bank != "" {
		parts[prefix+"_bank"] = cp.Bank
	}
	if cp.Name != "" {
		parts[prefix+"_name"] = cp.Name
	}
	if cp.TaxID != "" {
		parts[prefix+"_tax_id"] = cp.TaxID
	}
}

// Sign computes the hex-encoded HMAC-SHA256 over the canonical serialization.
// Returns an empty signature when no key is configured.
func (s *Signer) Sign(txn domain.Transaction) string {
	if !s.Enabled() {
		return ""
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(Canonical(txn)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time. A missing
// signature is reported as ErrSignatureMissing, never as valid.
func (s *Signer) Verify(txn domain.Transaction) error {
	if txn.Signature == "" {
		return apperrors.ErrSignatureMissing
	}
	if !s.Enabled() {
		// A signed row but no key to check it with: cannot verify.
		return apperrors.ErrSignatureMissing
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(Canonical(txn)))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(txn.Signature)
	if err != nil {
		return apperrors.ErrSignatureMismatch
	}
	if !hmac.Equal(expected, got) {
		return apperrors.ErrSignatureMismatch
	}
	return nil
}
