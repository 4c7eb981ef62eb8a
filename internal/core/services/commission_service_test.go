package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/core/services"
	"github.com/dispersa-mx/spei_ledger/internal/utils/signing"
)

type CommissionServiceTestSuite struct {
	suite.Suite
	mockCommissionRepo *MockCommissionRepository
	mockAccountRepo    *MockClabeAccountRepository
	mockTxnRepo        *MockTransactionRepository
	mockGateway        *MockBankGateway
	service            *services.CommissionService
}

func (suite *CommissionServiceTestSuite) SetupTest() {
	suite.mockCommissionRepo = new(MockCommissionRepository)
	suite.mockAccountRepo = new(MockClabeAccountRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockGateway = new(MockBankGateway)
	suite.service = services.NewCommissionService(
		suite.mockCommissionRepo, suite.mockAccountRepo, suite.mockTxnRepo,
		suite.mockGateway, signing.NewSigner("test-signing-key"))
}

func testCompany() *domain.Company {
	return &domain.Company{
		CompanyID:         uuid.NewString(),
		Name:              "ACME SA DE CV",
		CommissionPercent: decimal.RequireFromString("2.5"),
		ParentAccount:     "012180000000000099",
		IsActive:          true,
	}
}

func settledDeposit(companyID string, amount string) domain.Transaction {
	accountID := uuid.NewString()
	return domain.Transaction{
		TransactionID:  uuid.NewString(),
		ClabeAccountID: &accountID,
		CompanyID:      companyID,
		Direction:      domain.Incoming,
		Status:         domain.StatusScattered,
		Amount:         decimal.RequireFromString(amount),
	}
}

func (suite *CommissionServiceTestSuite) TestAccrueForTransaction() {
	ctx := context.Background()
	company := testCompany()
	txn := settledDeposit(company.CompanyID, "100.10")

	suite.mockAccountRepo.On("FindCompanyByID", ctx, company.CompanyID).Return(company, nil).Once()
	suite.mockCommissionRepo.On("CreatePendingCommission", ctx, mock.MatchedBy(func(c domain.PendingCommission) bool {
		return c.CompanyID == company.CompanyID &&
			c.SourceTransactionID == txn.TransactionID &&
			c.Amount.Equal(decimal.RequireFromString("2.50")) &&
			c.Status == domain.CommissionPending
	})).Return(nil).Once()

	err := suite.service.AccrueForTransaction(ctx, txn)

	suite.Require().NoError(err)
	suite.mockCommissionRepo.AssertExpectations(suite.T())
}

func (suite *CommissionServiceTestSuite) TestAccrueForTransaction_AlreadyAccrued() {
	ctx := context.Background()
	company := testCompany()
	txn := settledDeposit(company.CompanyID, "100.10")

	suite.mockAccountRepo.On("FindCompanyByID", ctx, company.CompanyID).Return(company, nil).Once()
	suite.mockCommissionRepo.On("CreatePendingCommission", ctx, mock.Anything).
		Return(apperrors.ErrDuplicate).Once()

	err := suite.service.AccrueForTransaction(ctx, txn)

	suite.Require().NoError(err)
}

func (suite *CommissionServiceTestSuite) TestAccrueForTransaction_ZeroPercent() {
	ctx := context.Background()
	company := testCompany()
	company.CommissionPercent = decimal.Zero
	txn := settledDeposit(company.CompanyID, "100.10")

	suite.mockAccountRepo.On("FindCompanyByID", ctx, company.CompanyID).Return(company, nil).Once()

	err := suite.service.AccrueForTransaction(ctx, txn)

	suite.Require().NoError(err)
	suite.mockCommissionRepo.AssertNotCalled(suite.T(), "CreatePendingCommission", mock.Anything, mock.Anything)
}

func (suite *CommissionServiceTestSuite) TestAccrueForTransaction_UnassignedDeposit() {
	ctx := context.Background()
	txn := settledDeposit("", "100.10")

	err := suite.service.AccrueForTransaction(ctx, txn)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindCompanyByID", mock.Anything, mock.Anything)
}

func (suite *CommissionServiceTestSuite) TestRunDailyCutoff_ConsolidatesAndDispatches() {
	ctx := context.Background()
	company := testCompany()
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	concentrator := testAccount()
	concentrator.CompanyID = company.CompanyID
	concentrator.IsConcentrator = true

	pendings := []domain.PendingCommission{
		{CommissionID: uuid.NewString(), CompanyID: company.CompanyID, Amount: decimal.RequireFromString("2.50"), Status: domain.CommissionPending},
		{CommissionID: uuid.NewString(), CompanyID: company.CompanyID, Amount: decimal.RequireFromString("0.33"), Status: domain.CommissionPending},
	}

	suite.mockCommissionRepo.On("ListCompaniesWithPending", ctx).Return([]string{company.CompanyID}, nil).Once()
	suite.mockCommissionRepo.On("FindCutoff", ctx, company.CompanyID, day).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockCommissionRepo.On("ListPendingByCompany", ctx, company.CompanyID).Return(pendings, nil).Once()
	suite.mockAccountRepo.On("FindCompanyByID", ctx, company.CompanyID).Return(company, nil).Once()
	suite.mockCommissionRepo.On("CreateCutoff", ctx, mock.MatchedBy(func(c domain.CommissionCutoff) bool {
		return c.CompanyID == company.CompanyID &&
			c.TargetAccount == company.ParentAccount &&
			c.TotalAmount.Equal(decimal.RequireFromString("2.83")) &&
			c.CommissionCount == 2 &&
			c.CutoffDate.Equal(day)
	})).Return(nil).Once()
	suite.mockCommissionRepo.On("UpdateCutoffStatus", ctx, mock.AnythingOfType("string"), domain.CutoffProcessing, (*string)(nil), (*string)(nil)).Return(nil).Once()
	suite.mockAccountRepo.On("FindConcentratorByCompany", ctx, company.CompanyID).Return(concentrator, nil).Once()
	suite.mockTxnRepo.On("CreateOutgoingWithBalanceCheck", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Direction == domain.Outgoing &&
			txn.Status == domain.StatusPending &&
			txn.Amount.Equal(decimal.RequireFromString("2.83")) &&
			txn.Beneficiary.Account == company.ParentAccount &&
			txn.Signature != ""
	}), mock.Anything).Return(nil).Once()
	suite.mockCommissionRepo.On("MarkCommissions", ctx,
		[]string{pendings[0].CommissionID, pendings[1].CommissionID},
		domain.CommissionProcessed, mock.AnythingOfType("string")).Return(nil).Once()
	suite.mockGateway.On("Dispatch", ctx, mock.Anything).Return("ORD-CUT-1", nil).Once()
	suite.mockTxnRepo.On("TransitionStatus", ctx, mock.AnythingOfType("string"),
		domain.StatusPending, domain.StatusSent, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockCommissionRepo.On("UpdateCutoffStatus", ctx, mock.AnythingOfType("string"), domain.CutoffSent, mock.AnythingOfType("*string"), (*string)(nil)).Return(nil).Once()

	summary, err := suite.service.RunDailyCutoff(ctx, day)

	suite.Require().NoError(err)
	suite.Equal(1, summary.CompaniesProcessed)
	suite.Equal(1, summary.CutoffsCreated)
	suite.Equal(0, summary.CutoffsFailed)
	suite.mockCommissionRepo.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *CommissionServiceTestSuite) TestRunDailyCutoff_SecondRunSkips() {
	ctx := context.Background()
	company := testCompany()
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	suite.mockCommissionRepo.On("ListCompaniesWithPending", ctx).Return([]string{company.CompanyID}, nil).Once()
	suite.mockCommissionRepo.On("FindCutoff", ctx, company.CompanyID, day).
		Return(&domain.CommissionCutoff{CutoffID: uuid.NewString(), CompanyID: company.CompanyID, CutoffDate: day}, nil).Once()

	summary, err := suite.service.RunDailyCutoff(ctx, day)

	suite.Require().NoError(err)
	suite.Equal(1, summary.CutoffsSkipped)
	suite.Equal(0, summary.CutoffsCreated)
	suite.mockCommissionRepo.AssertNotCalled(suite.T(), "CreateCutoff", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateOutgoingWithBalanceCheck", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CommissionServiceTestSuite) TestRunDailyCutoff_NoParentAccount() {
	ctx := context.Background()
	company := testCompany()
	company.ParentAccount = ""
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	pendings := []domain.PendingCommission{
		{CommissionID: uuid.NewString(), CompanyID: company.CompanyID, Amount: decimal.RequireFromString("5.00"), Status: domain.CommissionPending},
	}

	suite.mockCommissionRepo.On("ListCompaniesWithPending", ctx).Return([]string{company.CompanyID}, nil).Once()
	suite.mockCommissionRepo.On("FindCutoff", ctx, company.CompanyID, day).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockCommissionRepo.On("ListPendingByCompany", ctx, company.CompanyID).Return(pendings, nil).Once()
	suite.mockAccountRepo.On("FindCompanyByID", ctx, company.CompanyID).Return(company, nil).Once()
	suite.mockCommissionRepo.On("CreateCutoff", ctx, mock.MatchedBy(func(c domain.CommissionCutoff) bool {
		return c.Status == domain.CutoffFailed && c.ErrorDetail != nil
	})).Return(nil).Once()
	suite.mockCommissionRepo.On("MarkCommissions", ctx,
		[]string{pendings[0].CommissionID}, domain.CommissionFailed, mock.AnythingOfType("string")).Return(nil).Once()

	summary, err := suite.service.RunDailyCutoff(ctx, day)

	suite.Require().NoError(err)
	suite.Equal(1, summary.CutoffsFailed)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateOutgoingWithBalanceCheck", mock.Anything, mock.Anything, mock.Anything)
	suite.mockGateway.AssertNotCalled(suite.T(), "Dispatch", mock.Anything, mock.Anything)
}

func (suite *CommissionServiceTestSuite) TestRunDailyCutoff_InsufficientFunds() {
	ctx := context.Background()
	company := testCompany()
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	concentrator := testAccount()
	concentrator.CompanyID = company.CompanyID
	pendings := []domain.PendingCommission{
		{CommissionID: uuid.NewString(), CompanyID: company.CompanyID, Amount: decimal.RequireFromString("5.00"), Status: domain.CommissionPending},
	}

	suite.mockCommissionRepo.On("ListCompaniesWithPending", ctx).Return([]string{company.CompanyID}, nil).Once()
	suite.mockCommissionRepo.On("FindCutoff", ctx, company.CompanyID, day).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockCommissionRepo.On("ListPendingByCompany", ctx, company.CompanyID).Return(pendings, nil).Once()
	suite.mockAccountRepo.On("FindCompanyByID", ctx, company.CompanyID).Return(company, nil).Once()
	suite.mockCommissionRepo.On("CreateCutoff", ctx, mock.Anything).Return(nil).Once()
	suite.mockCommissionRepo.On("UpdateCutoffStatus", ctx, mock.AnythingOfType("string"), domain.CutoffProcessing, (*string)(nil), (*string)(nil)).Return(nil).Once()
	suite.mockAccountRepo.On("FindConcentratorByCompany", ctx, company.CompanyID).Return(concentrator, nil).Once()
	suite.mockTxnRepo.On("CreateOutgoingWithBalanceCheck", ctx, mock.Anything, mock.Anything).
		Return(apperrors.NewInsufficientFundsError(decimal.RequireFromString("1.00"))).Once()
	suite.mockCommissionRepo.On("MarkCommissions", ctx,
		[]string{pendings[0].CommissionID}, domain.CommissionFailed, mock.AnythingOfType("string")).Return(nil).Once()
	suite.mockCommissionRepo.On("UpdateCutoffStatus", ctx, mock.AnythingOfType("string"), domain.CutoffFailed, (*string)(nil), mock.AnythingOfType("*string")).Return(nil).Once()

	summary, err := suite.service.RunDailyCutoff(ctx, day)

	suite.Require().NoError(err)
	suite.Equal(1, summary.CutoffsFailed)
	suite.mockGateway.AssertNotCalled(suite.T(), "Dispatch", mock.Anything, mock.Anything)
	suite.mockCommissionRepo.AssertExpectations(suite.T())
}

func TestCommissionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommissionServiceTestSuite))
}
