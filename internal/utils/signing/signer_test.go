package signing_test

import (
	"testing"
	"time"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/utils/signing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransaction() domain.Transaction {
	accountID := "acc-123"
	return domain.Transaction{
		TransactionID:  "txn-1",
		ClabeAccountID: &accountID,
		Direction:      domain.Outgoing,
		Amount:         decimal.NewFromFloat(1500.5),
		Concept:        "payroll week 34",
		TrackingKey:    "DISP20260831000001",
		Beneficiary: domain.Counterparty{
			Account: "646180157000000004",
			Bank:    "90646",
			Name:    "ACME SA DE CV",
		},
		AuditFields: domain.AuditFields{
			CreatedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestSignThenVerify(t *testing.T) {
	s := signing.NewSigner("test-secret")
	txn := sampleTransaction()
	txn.Signature = s.Sign(txn)

	require.NotEmpty(t, txn.Signature)
	assert.NoError(t, s.Verify(txn))
}

func TestVerify_AnyFieldChangeFlipsResult(t *testing.T) {
	s := signing.NewSigner("test-secret")

	mutations := map[string]func(*domain.Transaction){
		"amount":              func(txn *domain.Transaction) { txn.Amount = txn.Amount.Add(decimal.NewFromInt(1)) },
		"concept":             func(txn *domain.Transaction) { txn.Concept = "tampered" },
		"tracking key":        func(txn *domain.Transaction) { txn.TrackingKey = "DISP20260831000002" },
		"direction":           func(txn *domain.Transaction) { txn.Direction = domain.Incoming },
		"beneficiary account": func(txn *domain.Transaction) { txn.Beneficiary.Account = "646180157000000005" },
		"beneficiary name":    func(txn *domain.Transaction) { txn.Beneficiary.Name = "EVIL SA DE CV" },
		"created at":          func(txn *domain.Transaction) { txn.CreatedAt = txn.CreatedAt.Add(time.Second) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			txn := sampleTransaction()
			txn.Signature = s.Sign(txn)
			mutate(&txn)
			assert.ErrorIs(t, s.Verify(txn), apperrors.ErrSignatureMismatch)
		})
	}
}

func TestVerify_MissingSignatureIsNeverTrusted(t *testing.T) {
	s := signing.NewSigner("test-secret")
	txn := sampleTransaction()
	assert.ErrorIs(t, s.Verify(txn), apperrors.ErrSignatureMissing)
}

func TestVerify_WrongKey(t *testing.T) {
	signer := signing.NewSigner("key-a")
	other := signing.NewSigner("key-b")

	txn := sampleTransaction()
	txn.Signature = signer.Sign(txn)
	assert.ErrorIs(t, other.Verify(txn), apperrors.ErrSignatureMismatch)
}

func TestVerify_MalformedSignature(t *testing.T) {
	s := signing.NewSigner("test-secret")
	txn := sampleTransaction()
	txn.Signature = "not-hex!"
	assert.ErrorIs(t, s.Verify(txn), apperrors.ErrSignatureMismatch)
}

func TestSigner_DisabledWithoutKey(t *testing.T) {
	s := signing.NewSigner("")
	txn := sampleTransaction()

	assert.False(t, s.Enabled())
	assert.Empty(t, s.Sign(txn))

	// Even a row carrying some signature cannot be verified without a key.
	txn.Signature = "deadbeef"
	assert.ErrorIs(t, s.Verify(txn), apperrors.ErrSignatureMissing)
}

func TestCanonical_Deterministic(t *testing.T) {
	a := sampleTransaction()
	b := sampleTransaction()
	assert.Equal(t, signing.Canonical(a), signing.Canonical(b))

	// Amount normalization: 1500.5 and 1500.50 serialize identically.
	b.Amount = decimal.RequireFromString("1500.50")
	assert.Equal(t, signing.Canonical(a), signing.Canonical(b))

	// Timestamp normalization: same instant in another zone serializes identically.
	cdmx := time.FixedZone("CDMX", -6*3600)
	b.CreatedAt = a.CreatedAt.In(cdmx)
	assert.Equal(t, signing.Canonical(a), signing.Canonical(b))
}

func TestCanonical_OmitsAbsentOptionalFields(t *testing.T) {
	txn := sampleTransaction()
	txn.Payer = domain.Counterparty{}
	canonical := signing.Canonical(txn)

	assert.NotContains(t, canonical, "payer_account")
	assert.Contains(t, canonical, "beneficiary_account:646180157000000004")
	assert.Contains(t, canonical, "amount:1500.50")
}
