package order

import (
	"context"
	"fmt"
	"time"

	"github.com/matst80/slask-storefront/pkg/types"
	"go.uber.org/zap"
)

const DefaultRefundWindow = 60 * 24 * time.Hour

type Repository interface {
	FindDetail(ctx context.Context, id int64) (*types.OrderDetail, error)
	FindPayment(ctx context.Context, orderId int64) (*types.PaymentInfo, error)
	SaveDetail(ctx context.Context, detail *types.OrderDetail) error
	ListByUser(ctx context.Context, userId int64, req types.PageRequest) (*types.Page[types.OrderDetail], error)
}

type Notifier interface {
	OrderChanged(ctx context.Context, change types.OrderChange) error
}

type Config struct {
	RefundWindow time.Duration
	Statuses     *types.OrderStatusTable
	Notifier     Notifier
	Now          func() time.Time
	Log          *zap.SugaredLogger
}

type Service struct {
	repo         Repository
	statuses     *types.OrderStatusTable
	notifier     Notifier
	refundWindow time.Duration
	now          func() time.Time
	log          *zap.SugaredLogger
}

func NewService(repo Repository, cfg Config) *Service {
	s := &Service{
		repo:         repo,
		statuses:     cfg.Statuses,
		notifier:     cfg.Notifier,
		refundWindow: cfg.RefundWindow,
		now:          cfg.Now,
		log:          cfg.Log,
	}
	if s.statuses == nil {
		s.statuses = types.NewOrderStatusTable()
	}
	if s.refundWindow <= 0 {
		s.refundWindow = DefaultRefundWindow
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	return s
}

func (s *Service) Statuses() *types.OrderStatusTable {
	return s.statuses
}

func isCustomer(detail *types.OrderDetail, acct *types.Account) bool {
	return acct != nil && (acct.Id == detail.UserId || acct.IsAdmin())
}

func isShop(detail *types.OrderDetail, acct *types.Account) bool {
	return acct != nil && (acct.Id == detail.ShopOwnerId || acct.IsAdmin())
}

func (s *Service) Get(ctx context.Context, id int64, acct *types.Account) (*types.OrderDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isCustomer(detail, acct) && !isShop(detail, acct) {
		return nil, ErrInvalidUser
	}
	return detail, nil
}

func (s *Service) ListByUser(ctx context.Context, acct *types.Account, req types.PageRequest) (*types.Page[types.OrderDetail], error) {
	if acct == nil {
		return nil, ErrInvalidUser
	}
	req.Sanitize()
	return s.repo.ListByUser(ctx, acct.Id, req)
}

func (s *Service) Cancel(ctx context.Context, id int64, reason string, acct *types.Account) (*types.OrderDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isCustomer(detail, acct) {
		return nil, ErrInvalidUser
	}
	if detail.Status != types.StatusPending && detail.Status != types.StatusPendingPayment {
		return nil, ErrInvalidStatus
	}
	return s.transition(ctx, detail, types.StatusCanceled, reason, acct)
}

func (s *Service) Refund(ctx context.Context, id int64, reason string, acct *types.Account) (*types.OrderDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isCustomer(detail, acct) {
		return nil, ErrInvalidUser
	}
	if detail.Status != types.StatusCompleted {
		return nil, ErrInvalidStatus
	}
	now := s.now()
	if detail.LastModified.After(now) || now.Sub(detail.LastModified) > s.refundWindow {
		return nil, ErrInvalidDate
	}
	return s.transition(ctx, detail, types.StatusPendingReturn, reason, acct)
}

func (s *Service) Confirm(ctx context.Context, id int64, acct *types.Account) (*types.OrderDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.Status != types.StatusShipping {
		return nil, ErrInvalidStatus
	}
	payment, err := s.repo.FindPayment(ctx, detail.OrderId)
	if err != nil {
		return nil, err
	}
	if !isCustomer(detail, acct) {
		return nil, ErrInvalidUser
	}
	if payment.Status != types.PaymentPaid {
		return nil, ErrInvalidPayment
	}
	detail.PaymentStatus = payment.Status
	return s.transition(ctx, detail, types.StatusCompleted, "", acct)
}

// ChangeStatus is the shop side of the flow, the note is kept as it is.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status types.OrderStatus, acct *types.Account) (*types.OrderDetail, error) {
	if _, ok := s.statuses.Lookup(status); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isShop(detail, acct) {
		return nil, ErrInvalidOwnership
	}
	return s.transition(ctx, detail, status, detail.Note, acct)
}

func (s *Service) transition(ctx context.Context, detail *types.OrderDetail, to types.OrderStatus, note string, acct *types.Account) (*types.OrderDetail, error) {
	from := detail.Status
	now := s.now()
	detail.Status = to
	detail.Note = note
	detail.Date = now
	detail.LastModified = now
	if err := s.repo.SaveDetail(ctx, detail); err != nil {
		return nil, fmt.Errorf("save detail %d: %w", detail.Id, err)
	}
	s.log.Infof("order detail %d changed %s -> %s", detail.Id, from, to)
	if s.notifier != nil {
		change := types.OrderChange{
			DetailId: detail.Id,
			OrderId:  detail.OrderId,
			UserId:   detail.UserId,
			ShopId:   detail.ShopId,
			From:     from,
			To:       to,
			Reason:   note,
			ActorId:  acct.Id,
			Time:     now,
		}
		if err := s.notifier.OrderChanged(ctx, change); err != nil {
			s.log.Errorf("failed to publish order change for %d: %v", detail.Id, err)
		}
	}
	return detail, nil
}
