package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/core/ports/gateways"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
)

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateOutgoingWithBalanceCheck(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error {
	args := m.Called(ctx, txn, entry)
	return args.Error(0)
}

func (m *MockTransactionRepository) RetryOutgoingWithBalanceCheck(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error {
	args := m.Called(ctx, txn, entry)
	return args.Error(0)
}

func (m *MockTransactionRepository) CreateIncoming(ctx context.Context, txn domain.Transaction, entry domain.StateTransitionLogEntry) error {
	args := m.Called(ctx, txn, entry)
	return args.Error(0)
}

func (m *MockTransactionRepository) Balance(ctx context.Context, clabeAccountID string) (*domain.Balance, error) {
	args := m.Called(ctx, clabeAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByTrackingKey(ctx context.Context, trackingKey string) (*domain.Transaction, error) {
	args := m.Called(ctx, trackingKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.Transaction, error) {
	args := m.Called(ctx, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) TransitionStatus(ctx context.Context, transactionID string, from, to domain.TransactionStatus, update portsrepo.StatusUpdate, entry domain.StateTransitionLogEntry) error {
	args := m.Called(ctx, transactionID, from, to, update, entry)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransitionsByTransaction(ctx context.Context, transactionID string) ([]domain.StateTransitionLogEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StateTransitionLogEntry), args.Error(1)
}

// --- Mock ClabeAccountRepository ---
type MockClabeAccountRepository struct {
	mock.Mock
}

func (m *MockClabeAccountRepository) FindAccountByID(ctx context.Context, clabeAccountID string) (*domain.ClabeAccount, error) {
	args := m.Called(ctx, clabeAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClabeAccount), args.Error(1)
}

func (m *MockClabeAccountRepository) FindAccountByClabe(ctx context.Context, clabe string) (*domain.ClabeAccount, error) {
	args := m.Called(ctx, clabe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClabeAccount), args.Error(1)
}

func (m *MockClabeAccountRepository) FindConcentratorByCompany(ctx context.Context, companyID string) (*domain.ClabeAccount, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClabeAccount), args.Error(1)
}

func (m *MockClabeAccountRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

// --- Mock CommissionRepository ---
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) CreatePendingCommission(ctx context.Context, commission domain.PendingCommission) error {
	args := m.Called(ctx, commission)
	return args.Error(0)
}

func (m *MockCommissionRepository) ListCompaniesWithPending(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCommissionRepository) ListPendingByCompany(ctx context.Context, companyID string) ([]domain.PendingCommission, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingCommission), args.Error(1)
}

func (m *MockCommissionRepository) CreateCutoff(ctx context.Context, cutoff domain.CommissionCutoff) error {
	args := m.Called(ctx, cutoff)
	return args.Error(0)
}

func (m *MockCommissionRepository) FindCutoff(ctx context.Context, companyID string, date time.Time) (*domain.CommissionCutoff, error) {
	args := m.Called(ctx, companyID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionCutoff), args.Error(1)
}

func (m *MockCommissionRepository) MarkCommissions(ctx context.Context, commissionIDs []string, status domain.CommissionStatus, cutoffID string) error {
	args := m.Called(ctx, commissionIDs, status, cutoffID)
	return args.Error(0)
}

func (m *MockCommissionRepository) UpdateCutoffStatus(ctx context.Context, cutoffID string, status domain.CutoffStatus, transactionID *string, errorDetail *string) error {
	args := m.Called(ctx, cutoffID, status, transactionID, errorDetail)
	return args.Error(0)
}

// --- Mock WebhookRepository ---
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) FindProcessed(ctx context.Context, webhookType domain.WebhookType, trackingKey string) (*domain.ProcessedWebhook, error) {
	args := m.Called(ctx, webhookType, trackingKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessedWebhook), args.Error(1)
}

func (m *MockWebhookRepository) RecordProcessed(ctx context.Context, record domain.ProcessedWebhook) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// --- Mock AuditRepository ---
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) AppendSecurityEvent(ctx context.Context, event domain.SecurityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepository) ListSecurityEvents(ctx context.Context, filter portsrepo.SecurityEventFilter) ([]domain.SecurityEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SecurityEvent), args.Error(1)
}

// --- Mock BankGateway ---
type MockBankGateway struct {
	mock.Mock
}

func (m *MockBankGateway) Dispatch(ctx context.Context, order gateways.SpeiOrder) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

// --- Mock CommissionService ---
type MockCommissionSvc struct {
	mock.Mock
}

func (m *MockCommissionSvc) AccrueForTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockCommissionSvc) RunDailyCutoff(ctx context.Context, date time.Time) (*portssvc.CutoffRunSummary, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.CutoffRunSummary), args.Error(1)
}

// --- Mock AuditService ---
type MockAuditSvc struct {
	mock.Mock
}

func (m *MockAuditSvc) RecordSecurityEvent(ctx context.Context, event domain.SecurityEvent) {
	m.Called(ctx, event)
}

func (m *MockAuditSvc) ListSecurityEvents(ctx context.Context, action, actor string, severity domain.EventSeverity, limit int) ([]domain.SecurityEvent, error) {
	args := m.Called(ctx, action, actor, severity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SecurityEvent), args.Error(1)
}
