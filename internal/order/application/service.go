package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/order-fulfillment/internal/order/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

const compensationTimeout = 10 * time.Second

type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	products ProductClient
	notify   notify.Notifier
}

func NewService(log *slog.Logger, repo OrderRepository, products ProductClient, n notify.Notifier) *Service {
	return &Service{log: log, repo: repo, products: products, notify: n}
}

type reservation struct {
	productID int64
	qty       int
}

// CreateOrder reserves stock for every item in request order, then persists
// the order as PENDING. The product read supplies name and price only; the
// stock level it reports may be cached, so the reserve call alone decides.
// If any step fails, reservations that were acknowledged are released in
// reverse order. A reservation whose outcome is unknown
// (timeout or transport failure) is left alone and logged.
func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrder) (domain.Order, error) {
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}

	var (
		reserved []reservation
		items    = make([]domain.OrderItem, 0, len(req.Items))
	)
	fail := func(err error) (domain.Order, error) {
		s.compensate(ctx, reserved)
		return domain.Order{}, err
	}

	for _, it := range req.Items {
		p, err := s.products.GetProduct(ctx, it.ProductID)
		if err != nil {
			return fail(apperr.Wrap(apperr.KindOf(err), err, "product %d", it.ProductID))
		}
		if !p.Price.IsPositive() {
			return fail(apperr.Validation("product %d has no valid price", it.ProductID))
		}
		if err := s.products.ReserveStock(ctx, it.ProductID, it.Quantity); err != nil {
			if apperr.Retryable(err) {
				s.log.Error("reservation outcome unknown, needs reconciliation",
					"product_id", it.ProductID, "quantity", it.Quantity, "err", err)
			}
			return fail(apperr.Wrap(apperr.KindOf(err), err, "reserve product %d", it.ProductID))
		}
		reserved = append(reserved, reservation{productID: it.ProductID, qty: it.Quantity})
		items = append(items, domain.NewOrderItem(p.ID, p.Name, it.Quantity, p.Price))
	}

	o := domain.NewOrder(req.CustomerName, req.CustomerEmail, req.ShippingAddress, items)
	saved, err := s.repo.Create(ctx, o)
	if err != nil {
		return fail(fmt.Errorf("persist order: %w", err))
	}

	s.log.Info("order created", "order_id", saved.ID, "total", saved.TotalAmount.String(), "items", len(saved.Items))
	s.notify.Notify(ctx, fmt.Sprintf("Order created: %d", saved.ID))
	return saved, nil
}

// compensate runs detached from the request context so a client disconnect
// does not strand reservations.
func (s *Service) compensate(ctx context.Context, reserved []reservation) {
	if len(reserved) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.products.ReleaseStock(ctx, r.productID, r.qty); err != nil {
			s.log.Error("stock release failed, needs reconciliation",
				"product_id", r.productID, "quantity", r.qty, "err", err)
			continue
		}
		s.log.Info("stock released", "product_id", r.productID, "quantity", r.qty)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx, domain.Filter{})
}

func (s *Service) ByCustomerEmail(ctx context.Context, email string) ([]domain.Order, error) {
	return s.repo.List(ctx, domain.Filter{CustomerEmail: email})
}

func (s *Service) ByStatus(ctx context.Context, status string) ([]domain.Order, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{Status: st})
}

func (s *Service) SearchByCustomerName(ctx context.Context, name string) ([]domain.Order, error) {
	return s.repo.List(ctx, domain.Filter{CustomerNameContains: name})
}

// UpdateStatus accepts any transition between known statuses.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = st
	o.UpdatedAt = time.Now().UTC()
	saved, err := s.repo.Save(ctx, o)
	if err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order status updated", "order_id", id, "status", st)
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("order deleted", "order_id", id)
	s.notify.Notify(ctx, fmt.Sprintf("Order deleted: %d", id))
	return nil
}
