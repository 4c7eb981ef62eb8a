package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
	"github.com/dispersa-mx/spei_ledger/internal/handlers"
	"github.com/dispersa-mx/spei_ledger/internal/platform/config"
)

// --- Mock TransferService ---
type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) CreateOutgoing(ctx context.Context, req dto.CreateTransferRequest, actor, originIP string) (*domain.Transaction, error) {
	args := m.Called(ctx, req, actor, originIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransferService) Cancel(ctx context.Context, transactionID, actor, originIP string) error {
	args := m.Called(ctx, transactionID, actor, originIP)
	return args.Error(0)
}
func (m *MockTransferService) SweepExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *MockTransferService) RetryFailed(ctx context.Context, transactionID, actor, originIP string) error {
	args := m.Called(ctx, transactionID, actor, originIP)
	return args.Error(0)
}
func (m *MockTransferService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransferService) VerifyIntegrity(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}
func (m *MockTransferService) ListTransitions(ctx context.Context, transactionID string) ([]domain.StateTransitionLogEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StateTransitionLogEntry), args.Error(1)
}

var _ portssvc.TransferSvcFacade = (*MockTransferService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) Balance(ctx context.Context, clabeAccountID string) (*domain.Balance, error) {
	args := m.Called(ctx, clabeAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

var _ portssvc.BalanceSvcFacade = (*MockBalanceService)(nil)

// --- Mock WebhookService ---
type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) ProcessDeposit(ctx context.Context, event dto.DepositEvent, rawPayload []byte, sourceIP string) (domain.WebhookOutcome, error) {
	args := m.Called(ctx, event, rawPayload, sourceIP)
	return args.Get(0).(domain.WebhookOutcome), args.Error(1)
}
func (m *MockWebhookService) ProcessOrderStatus(ctx context.Context, event dto.OrderStatusEvent, rawPayload []byte, sourceIP string) (domain.WebhookOutcome, error) {
	args := m.Called(ctx, event, rawPayload, sourceIP)
	return args.Get(0).(domain.WebhookOutcome), args.Error(1)
}

var _ portssvc.WebhookSvcFacade = (*MockWebhookService)(nil)

// --- Mock CommissionService ---
type MockCommissionService struct {
	mock.Mock
}

func (m *MockCommissionService) AccrueForTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}
func (m *MockCommissionService) RunDailyCutoff(ctx context.Context, date time.Time) (*portssvc.CutoffRunSummary, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.CutoffRunSummary), args.Error(1)
}

var _ portssvc.CommissionSvcFacade = (*MockCommissionService)(nil)

// --- Mock AuditService ---
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) RecordSecurityEvent(ctx context.Context, event domain.SecurityEvent) {
	m.Called(ctx, event)
}
func (m *MockAuditService) ListSecurityEvents(ctx context.Context, action, actor string, severity domain.EventSeverity, limit int) ([]domain.SecurityEvent, error) {
	args := m.Called(ctx, action, actor, severity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SecurityEvent), args.Error(1)
}

var _ portssvc.AuditSvcFacade = (*MockAuditService)(nil)

// --- Test Suite ---
type TransferHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockTransfer   *MockTransferService
	mockBalance    *MockBalanceService
	mockWebhook    *MockWebhookService
	mockCommission *MockCommissionService
	mockAudit      *MockAuditService
	jwtSecret      string
	jwtIssuer      string
}

// validBeneficiary is an 18-digit CLABE with a correct check digit.
const validBeneficiary = "002010077777777771"

func (suite *TransferHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    suite.jwtIssuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *TransferHandlerTestSuite) buildRouter(webhookAllowedIPs []string) {
	cfg := &config.Config{
		JWTSecret:         suite.jwtSecret,
		JWTIssuer:         suite.jwtIssuer,
		WebhookRateLimit:  "100-S",
		WebhookAllowedIPs: webhookAllowedIPs,
	}

	services := &portssvc.ServiceContainer{
		Transfer:   suite.mockTransfer,
		Balance:    suite.mockBalance,
		Webhook:    suite.mockWebhook,
		Commission: suite.mockCommission,
		Audit:      suite.mockAudit,
	}

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, services, nil)
}

func (suite *TransferHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(dto.RegisterCustomValidators())

	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.jwtIssuer = "spei-ledger-test"

	suite.mockTransfer = new(MockTransferService)
	suite.mockBalance = new(MockBalanceService)
	suite.mockWebhook = new(MockWebhookService)
	suite.mockCommission = new(MockCommissionService)
	suite.mockAudit = new(MockAuditService)

	suite.buildRouter(nil)
}

func (suite *TransferHandlerTestSuite) doJSON(method, url string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *TransferHandlerTestSuite) TestCreateTransfer_Success() {
	userID := uuid.NewString()
	accountID := uuid.NewString()
	deadline := time.Now().Add(30 * time.Second).UTC()

	expected := &domain.Transaction{
		TransactionID:        uuid.NewString(),
		ClabeAccountID:       &accountID,
		Direction:            domain.Outgoing,
		Status:               domain.StatusPendingConfirmation,
		Amount:               decimal.RequireFromString("150.00"),
		Concept:              "Pago proveedores",
		TrackingKey:          "DSP20260831AAAAAAAAAAAAAAAAAA",
		ConfirmationDeadline: &deadline,
		Signature:            "abc123",
	}

	suite.mockTransfer.On("CreateOutgoing",
		mock.Anything,
		mock.MatchedBy(func(req dto.CreateTransferRequest) bool {
			return req.ClabeAccountID == accountID && req.BeneficiaryAccount == validBeneficiary
		}),
		userID,
		mock.AnythingOfType("string"),
	).Return(expected, nil).Once()

	body := dto.CreateTransferRequest{
		ClabeAccountID:     accountID,
		Amount:             decimal.RequireFromString("150.00"),
		Concept:            "Pago proveedores",
		BeneficiaryAccount: validBeneficiary,
		BeneficiaryBank:    "40002",
		BeneficiaryName:    "ACME SA DE CV",
	}
	w := suite.doJSON(http.MethodPost, "/api/v1/transfers", body, suite.generateTestToken(userID))

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.TransferResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.TransactionID, resp.TransactionID)
	suite.Equal(string(domain.StatusPendingConfirmation), resp.Status)
	suite.Equal("150.00", resp.Amount)
	suite.NotNil(resp.ConfirmationDeadline)
	suite.True(resp.Signed)

	suite.mockTransfer.AssertExpectations(suite.T())
}

func (suite *TransferHandlerTestSuite) TestCreateTransfer_InsufficientFunds() {
	userID := uuid.NewString()

	suite.mockTransfer.On("CreateOutgoing", mock.Anything, mock.Anything, userID, mock.Anything).
		Return(nil, apperrors.NewInsufficientFundsError(decimal.RequireFromString("12.34"))).Once()

	body := dto.CreateTransferRequest{
		ClabeAccountID:     uuid.NewString(),
		Amount:             decimal.RequireFromString("500.00"),
		Concept:            "Pago",
		BeneficiaryAccount: validBeneficiary,
		BeneficiaryBank:    "40002",
		BeneficiaryName:    "ACME SA DE CV",
	}
	w := suite.doJSON(http.MethodPost, "/api/v1/transfers", body, suite.generateTestToken(userID))

	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	var resp map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("12.34", resp["available"])

	suite.mockTransfer.AssertExpectations(suite.T())
}

func (suite *TransferHandlerTestSuite) TestCreateTransfer_InvalidBeneficiaryCheckDigit() {
	body := dto.CreateTransferRequest{
		ClabeAccountID:     uuid.NewString(),
		Amount:             decimal.RequireFromString("150.00"),
		Concept:            "Pago",
		BeneficiaryAccount: "002010077777777779", // wrong check digit
		BeneficiaryBank:    "40002",
		BeneficiaryName:    "ACME SA DE CV",
	}
	w := suite.doJSON(http.MethodPost, "/api/v1/transfers", body, suite.generateTestToken(uuid.NewString()))

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockTransfer.AssertNotCalled(suite.T(), "CreateOutgoing")
}

func (suite *TransferHandlerTestSuite) TestCreateTransfer_MissingToken() {
	w := suite.doJSON(http.MethodPost, "/api/v1/transfers", dto.CreateTransferRequest{}, "")

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockTransfer.AssertNotCalled(suite.T(), "CreateOutgoing")
}

func (suite *TransferHandlerTestSuite) TestCreateTransfer_WrongIssuerRejected() {
	suite.jwtIssuer = "someone-else"
	token := suite.generateTestToken(uuid.NewString())
	suite.jwtIssuer = "spei-ledger-test"

	w := suite.doJSON(http.MethodPost, "/api/v1/transfers", dto.CreateTransferRequest{}, token)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockTransfer.AssertNotCalled(suite.T(), "CreateOutgoing")
}

func (suite *TransferHandlerTestSuite) TestGetTransfer_IntegrityMismatchStillVisible() {
	txnID := uuid.NewString()
	tampered := &domain.Transaction{
		TransactionID: txnID,
		Direction:     domain.Outgoing,
		Status:        domain.StatusSent,
		Amount:        decimal.RequireFromString("999.99"),
		TrackingKey:   "DSP20260831BBBBBBBBBBBBBBBBBB",
		Signature:     "stale",
	}
	suite.mockTransfer.On("GetTransaction", mock.Anything, txnID).
		Return(tampered, apperrors.ErrSignatureMismatch).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/transfers/"+txnID, nil, suite.generateTestToken(uuid.NewString()))

	suite.Equal(http.StatusOK, w.Code)

	var resp map[string]json.RawMessage
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Contains(resp, "transaction")
	suite.Contains(resp, "integrity")

	suite.mockTransfer.AssertExpectations(suite.T())
}

func (suite *TransferHandlerTestSuite) TestCancelTransfer_NoLongerCancelable() {
	txnID := uuid.NewString()
	suite.mockTransfer.On("Cancel", mock.Anything, txnID, mock.Anything, mock.Anything).
		Return(apperrors.ErrInvalidStateTransition).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/transfers/"+txnID+"/cancel", nil, suite.generateTestToken(uuid.NewString()))

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockTransfer.AssertExpectations(suite.T())
}

func (suite *TransferHandlerTestSuite) TestWebhookDeposit_Processed() {
	suite.mockWebhook.On("ProcessDeposit",
		mock.Anything,
		mock.MatchedBy(func(event dto.DepositEvent) bool {
			return event.TrackingKey == "TRK-001" && event.Amount.Equal(decimal.RequireFromString("100.10"))
		}),
		mock.Anything,
		mock.AnythingOfType("string"),
	).Return(domain.WebhookSuccess, nil).Once()

	payload := map[string]any{
		"trackingKey":        "TRK-001",
		"amount":             "100.10",
		"beneficiaryAccount": "646180110400000007",
	}
	w := suite.doJSON(http.MethodPost, "/webhooks/deposit", payload, "")

	suite.Equal(http.StatusOK, w.Code)

	var resp map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("success", resp["result"])

	suite.mockWebhook.AssertExpectations(suite.T())
}

func (suite *TransferHandlerTestSuite) TestWebhookDeposit_SourceRejected() {
	// Rebuild with a non-empty allow-list; httptest requests come from
	// 192.0.2.1, which is not on it.
	suite.buildRouter([]string{"10.1.2.3"})
	suite.mockAudit.On("RecordSecurityEvent", mock.Anything, mock.MatchedBy(func(event domain.SecurityEvent) bool {
		return event.Action == "webhook_source_rejected"
	})).Once()

	payload := map[string]any{
		"trackingKey":        "TRK-002",
		"amount":             "50.00",
		"beneficiaryAccount": "646180110400000007",
	}
	w := suite.doJSON(http.MethodPost, "/webhooks/deposit", payload, "")

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockWebhook.AssertNotCalled(suite.T(), "ProcessDeposit")
	suite.mockAudit.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestTransferHandler(t *testing.T) {
	suite.Run(t, new(TransferHandlerTestSuite))
}
