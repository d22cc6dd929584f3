package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmehra2102/order-fulfillment/internal/payout/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

type Service struct {
	log         *slog.Logger
	repo        PayoutRepository
	estimations EstimationClient
	gateway     Gateway
	notify      notify.Notifier
	now         func() time.Time
}

func NewService(log *slog.Logger, repo PayoutRepository, estimations EstimationClient, gateway Gateway, n notify.Notifier) *Service {
	return &Service{
		log:         log,
		repo:        repo,
		estimations: estimations,
		gateway:     gateway,
		notify:      n,
		now:         time.Now,
	}
}

type CreatePayout struct {
	BenefitEstimationID int64
	CustomerID          string
	Amount              *money.Amount
	Method              string
	AdditionalDetails   string
}

// CreatePayout records a PENDING payout for an estimation. Customer and
// amount come from the estimation; the request's values are used only when
// the estimation has none.
func (s *Service) CreatePayout(ctx context.Context, req CreatePayout) (domain.Payout, error) {
	if req.BenefitEstimationID <= 0 {
		return domain.Payout{}, apperr.Validation("benefit estimation id is required")
	}
	method, err := domain.ParseMethod(req.Method)
	if err != nil {
		return domain.Payout{}, err
	}

	est, err := s.estimations.GetEstimation(ctx, req.BenefitEstimationID)
	if err != nil {
		return domain.Payout{}, apperr.Wrap(apperr.KindOf(err), err, "benefit estimation %d", req.BenefitEstimationID)
	}
	if est.Ineligible() {
		return domain.Payout{}, apperr.Ineligible("benefit estimation %d is %s and not eligible for payout", est.ID, est.Status)
	}

	customerID := est.CustomerID
	if customerID == "" {
		customerID = req.CustomerID
	}
	if strings.TrimSpace(customerID) == "" {
		return domain.Payout{}, apperr.Validation("customer id is required")
	}
	amount := money.Zero
	switch {
	case est.EstimatedBenefitAmount != nil:
		amount = *est.EstimatedBenefitAmount
	case req.Amount != nil:
		amount = *req.Amount
	}
	if !amount.IsPositive() {
		return domain.Payout{}, apperr.Validation("payout amount must be greater than 0, got %s", amount)
	}

	now := s.now().UTC()
	p := domain.Payout{
		BenefitEstimationID: est.ID,
		CustomerID:          customerID,
		OrderID:             est.OrderID,
		PayoutAmount:        amount,
		PayoutMethod:        method,
		Status:              domain.StatusPending,
		ReferenceNumber:     domain.NewReference(),
		TransactionDetails:  domain.TransactionDetails(est.OrderID, est.BenefitType, amount, method, req.AdditionalDetails),
		PayoutDate:          now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	saved, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Payout{}, fmt.Errorf("persist payout: %w", err)
	}

	s.log.Info("payout created", "payout_id", saved.ID, "reference", saved.ReferenceNumber, "amount", saved.PayoutAmount.String())
	s.notify.Notify(ctx, fmt.Sprintf("Payout created: %s", saved.ReferenceNumber))
	return saved, nil
}

// ProcessPayout drives a PENDING payout through PROCESSING to COMPLETED or
// FAILED. A gateway failure is recorded on the payout, not returned.
//
// The writes are read-modify-write: a status change made while the gateway
// call is in flight is overwritten by the final state.
func (s *Service) ProcessPayout(ctx context.Context, id int64) (domain.Payout, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Payout{}, err
	}
	// Deliberately stricter than UpdateStatus, which accepts any transition:
	// processing a non-PENDING payout would call the gateway a second time.
	if p.Status != domain.StatusPending {
		return domain.Payout{}, apperr.Ineligible("payout %d is %s, only PENDING payouts can be processed", id, p.Status)
	}

	p.Status = domain.StatusProcessing
	p.UpdatedAt = s.now().UTC()
	if p, err = s.repo.Save(ctx, p); err != nil {
		return domain.Payout{}, err
	}

	txID, sendErr := s.gateway.Send(ctx, p)

	// the money may have moved; record the outcome even if the caller left
	ctx = context.WithoutCancel(ctx)
	if sendErr != nil {
		p.Fail(sendErr, s.now().UTC())
		s.log.Warn("payout failed", "payout_id", id, "reference", p.ReferenceNumber, "err", sendErr)
	} else {
		p.Complete(s.now().UTC())
		s.log.Info("payout completed", "payout_id", id, "reference", p.ReferenceNumber, "transaction_id", txID)
	}
	saved, err := s.repo.Save(ctx, p)
	if err != nil {
		return domain.Payout{}, err
	}
	s.notify.Notify(ctx, fmt.Sprintf("Payout %s: %s", saved.Status, saved.ReferenceNumber))
	return saved, nil
}

// UpdateStatus accepts any transition between known statuses.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (domain.Payout, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Payout{}, err
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Payout{}, err
	}
	p.Status = st
	p.UpdatedAt = s.now().UTC()
	saved, err := s.repo.Save(ctx, p)
	if err != nil {
		return domain.Payout{}, err
	}
	s.log.Info("payout status updated", "payout_id", id, "status", st)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Payout, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(ctx, fmt.Sprintf("Payout deleted: %d", id))
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Payout, error) {
	return s.repo.List(ctx, domain.Filter{})
}

func (s *Service) ByCustomer(ctx context.Context, customerID string) ([]domain.Payout, error) {
	return s.repo.List(ctx, domain.Filter{CustomerID: customerID})
}

func (s *Service) ByOrder(ctx context.Context, orderID int64) ([]domain.Payout, error) {
	return s.repo.List(ctx, domain.Filter{OrderID: orderID})
}

func (s *Service) ByEstimation(ctx context.Context, estimationID int64) ([]domain.Payout, error) {
	return s.repo.List(ctx, domain.Filter{BenefitEstimationID: estimationID})
}

func (s *Service) ByMethod(ctx context.Context, method string) ([]domain.Payout, error) {
	m, err := domain.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{Method: m})
}

func (s *Service) ByStatus(ctx context.Context, status string) ([]domain.Payout, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{Status: st})
}

func (s *Service) ByCustomerAndStatus(ctx context.Context, customerID, status string) ([]domain.Payout, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{CustomerID: customerID, Status: st})
}

func (s *Service) ByStatusAndMethod(ctx context.Context, status, method string) ([]domain.Payout, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	m, err := domain.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{Status: st, Method: m})
}
