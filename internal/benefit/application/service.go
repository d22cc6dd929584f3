package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmehra2102/order-fulfillment/internal/benefit/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

type Service struct {
	log    *slog.Logger
	repo   EstimationRepository
	orders OrderClient
	notify notify.Notifier
	now    func() time.Time
}

func NewService(log *slog.Logger, repo EstimationRepository, orders OrderClient, n notify.Notifier) *Service {
	return &Service{log: log, repo: repo, orders: orders, notify: n, now: time.Now}
}

type CreateEstimation struct {
	OrderID              int64
	CustomerID           string
	PreferredBenefitType string
}

func (s *Service) CreateEstimation(ctx context.Context, req CreateEstimation) (domain.Estimation, error) {
	if req.OrderID <= 0 {
		return domain.Estimation{}, apperr.Validation("order id is required")
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.Estimation{}, apperr.Validation("customer id is required")
	}
	bt, err := domain.ParseBenefitType(req.PreferredBenefitType)
	if err != nil {
		return domain.Estimation{}, err
	}

	o, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return domain.Estimation{}, apperr.Wrap(apperr.KindOf(err), err, "order %d", req.OrderID)
	}

	amount := domain.Calculate(o.TotalAmount, bt)
	now := s.now().UTC()
	e := domain.Estimation{
		OrderID:                o.ID,
		CustomerID:             req.CustomerID,
		OrderTotalAmount:       o.TotalAmount,
		EstimatedBenefitAmount: amount,
		BenefitType:            bt,
		Status:                 domain.StatusCalculated,
		CalculationDetails:     domain.Details(o.TotalAmount, bt, amount, len(o.OrderItems), o.CustomerName),
		EstimationDate:         now,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	saved, err := s.repo.Create(ctx, e)
	if err != nil {
		return domain.Estimation{}, fmt.Errorf("persist estimation: %w", err)
	}

	s.log.Info("benefit estimated", "estimation_id", saved.ID, "order_id", saved.OrderID,
		"type", saved.BenefitType, "amount", saved.EstimatedBenefitAmount.String())
	s.notify.Notify(ctx, fmt.Sprintf("Benefit estimation created: %d", saved.ID))
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Estimation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Estimation, error) {
	return s.repo.List(ctx, domain.Filter{})
}

func (s *Service) ByCustomer(ctx context.Context, customerID string) ([]domain.Estimation, error) {
	return s.repo.List(ctx, domain.Filter{CustomerID: customerID})
}

func (s *Service) ByOrder(ctx context.Context, orderID int64) ([]domain.Estimation, error) {
	return s.repo.List(ctx, domain.Filter{OrderID: orderID})
}

func (s *Service) ByBenefitType(ctx context.Context, benefitType string) ([]domain.Estimation, error) {
	if benefitType == "" {
		return nil, apperr.Validation("benefit type is required")
	}
	bt, err := domain.ParseBenefitType(benefitType)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{BenefitType: bt})
}

func (s *Service) ByStatus(ctx context.Context, status string) ([]domain.Estimation, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{Status: st})
}

func (s *Service) ByCustomerAndStatus(ctx context.Context, customerID, status string) ([]domain.Estimation, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{CustomerID: customerID, Status: st})
}

// UpdateStatus accepts any transition between known statuses.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (domain.Estimation, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Estimation{}, err
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Estimation{}, err
	}
	e.Status = st
	e.UpdatedAt = s.now().UTC()
	saved, err := s.repo.Save(ctx, e)
	if err != nil {
		return domain.Estimation{}, err
	}
	s.log.Info("estimation status updated", "estimation_id", id, "status", st)
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(ctx, fmt.Sprintf("Benefit estimation deleted: %d", id))
	return nil
}
