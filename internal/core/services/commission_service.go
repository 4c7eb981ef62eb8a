package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	"github.com/dispersa-mx/spei_ledger/internal/core/ports/gateways"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
	"github.com/dispersa-mx/spei_ledger/internal/utils/commission"
	"github.com/dispersa-mx/spei_ledger/internal/utils/signing"
)

const cutoffActor = "commission-cutoff"

// CommissionService accrues per-deposit commissions and consolidates them in
// the daily cutoff. The consolidated transfer goes through the same atomic
// writer as any client transfer; the cutoff does not hold in the grace
// period.
type CommissionService struct {
	commissionRepo portsrepo.CommissionRepositoryFacade
	accountRepo    portsrepo.ClabeAccountRepositoryFacade
	txnRepo        portsrepo.TransactionRepositoryFacade
	gateway        gateways.BankGateway
	signer         *signing.Signer
	now            func() time.Time
}

// NewCommissionService creates a new CommissionService.
func NewCommissionService(
	cr portsrepo.CommissionRepositoryFacade,
	ar portsrepo.ClabeAccountRepositoryFacade,
	tr portsrepo.TransactionRepositoryFacade,
	gw gateways.BankGateway,
	signer *signing.Signer,
) *CommissionService {
	return &CommissionService{
		commissionRepo: cr,
		accountRepo:    ar,
		txnRepo:        tr,
		gateway:        gw,
		signer:         signer,
		now:            time.Now,
	}
}

var _ portssvc.CommissionSvcFacade = (*CommissionService)(nil)

// AccrueForTransaction creates the pending commission for one settled inbound
// transaction. The unique constraint on the source transaction makes double
// accrual impossible; a replayed call is a no-op.
func (s *CommissionService) AccrueForTransaction(ctx context.Context, txn domain.Transaction) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if txn.CompanyID == "" {
		// Unassigned deposit, nobody to charge.
		return nil
	}

	company, err := s.accountRepo.FindCompanyByID(ctx, txn.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to load company %s: %w", txn.CompanyID, err)
	}
	if !company.CommissionPercent.IsPositive() {
		return nil
	}

	fee, err := commission.Calculate(txn.Amount, company.CommissionPercent)
	if err != nil {
		return fmt.Errorf("failed to calculate commission: %w", err)
	}
	if fee.IsZero() {
		return nil
	}

	now := s.now().UTC()
	pending := domain.PendingCommission{
		CommissionID:        uuid.NewString(),
		CompanyID:           company.CompanyID,
		SourceTransactionID: txn.TransactionID,
		Amount:              fee,
		PercentApplied:      company.CommissionPercent,
		Status:              domain.CommissionPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     cutoffActor,
			LastUpdatedAt: now,
			LastUpdatedBy: cutoffActor,
		},
	}
	if err := s.commissionRepo.CreatePendingCommission(ctx, pending); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Info("Commission already accrued for transaction", slog.String("transaction_id", txn.TransactionID))
			return nil
		}
		return fmt.Errorf("failed to accrue commission: %w", err)
	}

	logger.Info("Commission accrued",
		slog.String("company_id", company.CompanyID),
		slog.String("transaction_id", txn.TransactionID),
		slog.String("amount", fee.StringFixed(2)))
	return nil
}

// RunDailyCutoff consolidates each company's pending commissions for the
// given calendar day into one outgoing transfer from the concentrator to the
// parent account. Idempotent per company per day: existing cutoffs are
// skipped, and the unique constraint catches concurrent runs.
func (s *CommissionService) RunDailyCutoff(ctx context.Context, date time.Time) (*portssvc.CutoffRunSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	day := date.UTC().Truncate(24 * time.Hour)

	companyIDs, err := s.commissionRepo.ListCompaniesWithPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies with pending commissions: %w", err)
	}

	summary := &portssvc.CutoffRunSummary{}
	for _, companyID := range companyIDs {
		summary.CompaniesProcessed++
		if err := s.cutoffCompany(ctx, companyID, day, summary); err != nil {
			logger.Error("Cutoff failed for company",
				slog.String("company_id", companyID),
				slog.String("cutoff_date", day.Format("2006-01-02")),
				slog.String("error", err.Error()))
			summary.CutoffsFailed++
		}
	}

	logger.Info("Daily cutoff run finished",
		slog.String("cutoff_date", day.Format("2006-01-02")),
		slog.Int("companies", summary.CompaniesProcessed),
		slog.Int("created", summary.CutoffsCreated),
		slog.Int("skipped", summary.CutoffsSkipped),
		slog.Int("failed", summary.CutoffsFailed))
	return summary, nil
}

// cutoffCompany runs one company's cutoff. It updates the summary itself for
// the skip and failed-but-recorded paths; a returned error means the caller
// counts the failure.
func (s *CommissionService) cutoffCompany(ctx context.Context, companyID string, day time.Time, summary *portssvc.CutoffRunSummary) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.commissionRepo.FindCutoff(ctx, companyID, day); err == nil {
		summary.CutoffsSkipped++
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check existing cutoff: %w", err)
	}

	pendings, err := s.commissionRepo.ListPendingByCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to list pending commissions: %w", err)
	}
	if len(pendings) == 0 {
		return nil
	}

	total := decimal.Zero
	ids := make([]string, 0, len(pendings))
	for _, p := range pendings {
		total = total.Add(p.Amount)
		ids = append(ids, p.CommissionID)
	}

	company, err := s.accountRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to load company: %w", err)
	}

	now := s.now().UTC()
	cutoff := domain.CommissionCutoff{
		CutoffID:        uuid.NewString(),
		CompanyID:       companyID,
		TargetAccount:   company.ParentAccount,
		TotalAmount:     total,
		CommissionCount: len(pendings),
		Status:          domain.CutoffPending,
		CutoffDate:      day,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     cutoffActor,
			LastUpdatedAt: now,
			LastUpdatedBy: cutoffActor,
		},
	}

	if company.ParentAccount == "" {
		detail := apperrors.ErrCommissionTargetMissing.Error()
		cutoff.Status = domain.CutoffFailed
		cutoff.ErrorDetail = &detail
		if err := s.commissionRepo.CreateCutoff(ctx, cutoff); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				summary.CutoffsSkipped++
				return nil
			}
			return fmt.Errorf("failed to record failed cutoff: %w", err)
		}
		if err := s.commissionRepo.MarkCommissions(ctx, ids, domain.CommissionFailed, cutoff.CutoffID); err != nil {
			return fmt.Errorf("failed to mark commissions failed: %w", err)
		}
		logger.Warn("Cutoff failed, company has no parent account", slog.String("company_id", companyID))
		summary.CutoffsFailed++
		return nil
	}

	if err := s.commissionRepo.CreateCutoff(ctx, cutoff); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			summary.CutoffsSkipped++
			return nil
		}
		return fmt.Errorf("failed to create cutoff: %w", err)
	}
	if err := s.commissionRepo.UpdateCutoffStatus(ctx, cutoff.CutoffID, domain.CutoffProcessing, nil, nil); err != nil {
		return fmt.Errorf("failed to advance cutoff: %w", err)
	}

	concentrator, err := s.accountRepo.FindConcentratorByCompany(ctx, companyID)
	if err != nil {
		return s.failCutoff(ctx, cutoff.CutoffID, ids, fmt.Errorf("no concentrator account: %w", err))
	}

	concentratorID := concentrator.ClabeAccountID
	txn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		ClabeAccountID: &concentratorID,
		CompanyID:      companyID,
		Direction:      domain.Outgoing,
		Status:         domain.StatusPending,
		Amount:         total,
		Concept:        "Comisiones " + day.Format("2006-01-02"),
		TrackingKey:    newTrackingKey(now),
		Beneficiary:    domain.Counterparty{Account: company.ParentAccount, Name: company.Name},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     cutoffActor,
			LastUpdatedAt: now,
			LastUpdatedBy: cutoffActor,
		},
	}
	txn.Signature = s.signer.Sign(txn)

	entry := newTransitionEntry(txn.TransactionID, txn.Status, txn.Status, cutoffActor, domain.SourceCron, "", now)
	entry.Metadata = map[string]string{"cutoff_id": cutoff.CutoffID}
	if err := s.txnRepo.CreateOutgoingWithBalanceCheck(ctx, txn, entry); err != nil {
		return s.failCutoff(ctx, cutoff.CutoffID, ids, fmt.Errorf("consolidated transfer rejected: %w", err))
	}

	if err := s.commissionRepo.MarkCommissions(ctx, ids, domain.CommissionProcessed, cutoff.CutoffID); err != nil {
		return fmt.Errorf("failed to mark commissions processed: %w", err)
	}

	order := gateways.SpeiOrder{
		TrackingKey:        txn.TrackingKey,
		Amount:             txn.Amount,
		Concept:            txn.Concept,
		BeneficiaryAccount: company.ParentAccount,
		BeneficiaryName:    company.Name,
		OriginAccount:      concentrator.Clabe,
	}

	externalOrderID, err := s.gateway.Dispatch(ctx, order)
	if err != nil {
		detail := err.Error()
		failEntry := newTransitionEntry(txn.TransactionID, domain.StatusPending, domain.StatusFailed, cutoffActor, domain.SourceCron, "", s.now().UTC())
		update := portsrepo.StatusUpdate{ErrorDetail: &detail}
		if trErr := s.txnRepo.TransitionStatus(ctx, txn.TransactionID, domain.StatusPending, domain.StatusFailed, update, failEntry); trErr != nil {
			logger.Error("Failed to mark cutoff transfer failed",
				slog.String("transaction_id", txn.TransactionID), slog.String("error", trErr.Error()))
		}
		// The commissions stay processed and linked: the transfer exists and
		// an operator retries it instead of re-running the cutoff.
		if upErr := s.commissionRepo.UpdateCutoffStatus(ctx, cutoff.CutoffID, domain.CutoffFailed, &txn.TransactionID, &detail); upErr != nil {
			logger.Error("Failed to mark cutoff failed", slog.String("cutoff_id", cutoff.CutoffID), slog.String("error", upErr.Error()))
		}
		summary.CutoffsFailed++
		return nil
	}

	sentAt := s.now().UTC()
	sentEntry := newTransitionEntry(txn.TransactionID, domain.StatusPending, domain.StatusSent, cutoffActor, domain.SourceCron, "", sentAt)
	sentUpdate := portsrepo.StatusUpdate{ExternalOrderID: &externalOrderID, ConfirmedAt: &sentAt}
	if err := s.txnRepo.TransitionStatus(ctx, txn.TransactionID, domain.StatusPending, domain.StatusSent, sentUpdate, sentEntry); err != nil {
		logger.Error("Failed to mark cutoff transfer sent",
			slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
	}
	if err := s.commissionRepo.UpdateCutoffStatus(ctx, cutoff.CutoffID, domain.CutoffSent, &txn.TransactionID, nil); err != nil {
		return fmt.Errorf("failed to finalize cutoff: %w", err)
	}

	logger.Info("Cutoff sent",
		slog.String("company_id", companyID),
		slog.String("cutoff_id", cutoff.CutoffID),
		slog.String("total", total.StringFixed(2)),
		slog.Int("commissions", len(pendings)))
	summary.CutoffsCreated++
	return nil
}

// failCutoff records a cutoff that could not produce its transfer and moves
// its commissions to failed for manual follow-up.
func (s *CommissionService) failCutoff(ctx context.Context, cutoffID string, commissionIDs []string, cause error) error {
	detail := cause.Error()
	if err := s.commissionRepo.MarkCommissions(ctx, commissionIDs, domain.CommissionFailed, cutoffID); err != nil {
		return fmt.Errorf("failed to mark commissions failed after %q: %w", detail, err)
	}
	if err := s.commissionRepo.UpdateCutoffStatus(ctx, cutoffID, domain.CutoffFailed, nil, &detail); err != nil {
		return fmt.Errorf("failed to mark cutoff failed after %q: %w", detail, err)
	}
	return cause
}
