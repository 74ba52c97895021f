package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	details  map[int64]types.OrderDetail
	payments map[int64]types.PaymentInfo
	saved    int
}

func (m *memRepo) FindDetail(ctx context.Context, id int64) (*types.OrderDetail, error) {
	d, ok := m.details[id]
	if !ok {
		return nil, ErrDetailNotFound
	}
	return &d, nil
}

func (m *memRepo) FindPayment(ctx context.Context, orderId int64) (*types.PaymentInfo, error) {
	p, ok := m.payments[orderId]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderId, ErrPaymentNotFound)
	}
	return &p, nil
}

func (m *memRepo) SaveDetail(ctx context.Context, detail *types.OrderDetail) error {
	m.saved++
	m.details[detail.Id] = *detail
	return nil
}

func (m *memRepo) ListByUser(ctx context.Context, userId int64, req types.PageRequest) (*types.Page[types.OrderDetail], error) {
	page := types.NewPage[types.OrderDetail](req.Page, req.Size, 0)
	for id := int64(1); id <= int64(len(m.details)); id++ {
		if d, ok := m.details[id]; ok && d.UserId == userId {
			page.Add(fmt.Sprint(id), d)
		}
	}
	page.TotalElements = len(page.Ids)
	return page, nil
}

type recordingNotifier struct {
	changes []types.OrderChange
}

func (r *recordingNotifier) OrderChanged(ctx context.Context, change types.OrderChange) error {
	r.changes = append(r.changes, change)
	return nil
}

var (
	now      = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	customer = &types.Account{Id: 1, Username: "reader", Roles: []types.Role{types.RoleUser}}
	seller   = &types.Account{Id: 2, Username: "shop", Roles: []types.Role{types.RoleSeller}}
	stranger = &types.Account{Id: 3, Username: "other", Roles: []types.Role{types.RoleUser}}
	admin    = &types.Account{Id: 4, Username: "admin", Roles: []types.Role{types.RoleAdmin}}
)

func newTestService(details ...types.OrderDetail) (*Service, *memRepo, *recordingNotifier) {
	repo := &memRepo{details: map[int64]types.OrderDetail{}, payments: map[int64]types.PaymentInfo{}}
	for _, d := range details {
		if d.UserId == 0 {
			d.UserId = customer.Id
		}
		if d.ShopOwnerId == 0 {
			d.ShopOwnerId = seller.Id
		}
		repo.details[d.Id] = d
	}
	n := &recordingNotifier{}
	svc := NewService(repo, Config{Notifier: n, Now: func() time.Time { return now }})
	return svc, repo, n
}

func TestGetChecksAccess(t *testing.T) {
	svc, _, _ := newTestService(types.OrderDetail{Id: 1, Status: types.StatusPending})
	ctx := context.Background()

	for _, acct := range []*types.Account{customer, seller, admin} {
		d, err := svc.Get(ctx, 1, acct)
		require.NoError(t, err)
		assert.Equal(t, int64(1), d.Id)
	}
	_, err := svc.Get(ctx, 1, stranger)
	assert.ErrorIs(t, err, ErrInvalidUser)
	_, err = svc.Get(ctx, 42, customer)
	assert.ErrorIs(t, err, ErrDetailNotFound)
}

func TestCancel(t *testing.T) {
	svc, repo, n := newTestService(
		types.OrderDetail{Id: 1, Status: types.StatusPending},
		types.OrderDetail{Id: 2, Status: types.StatusPendingPayment},
		types.OrderDetail{Id: 3, Status: types.StatusShipping},
	)
	ctx := context.Background()

	d, err := svc.Cancel(ctx, 1, "đổi ý", customer)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCanceled, d.Status)
	assert.Equal(t, "đổi ý", d.Note)
	assert.Equal(t, now, d.Date)
	assert.Equal(t, types.StatusCanceled, repo.details[1].Status)

	_, err = svc.Cancel(ctx, 2, "", admin)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, 3, "", customer)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Cancel(ctx, 1, "", stranger)
	assert.ErrorIs(t, err, ErrInvalidUser)

	require.Len(t, n.changes, 2)
	assert.Equal(t, types.StatusPending, n.changes[0].From)
	assert.Equal(t, types.StatusCanceled, n.changes[0].To)
	assert.Equal(t, customer.Id, n.changes[0].ActorId)
}

func TestRefund(t *testing.T) {
	svc, _, _ := newTestService(
		types.OrderDetail{Id: 1, Status: types.StatusCompleted, LastModified: now.Add(-24 * time.Hour)},
		types.OrderDetail{Id: 2, Status: types.StatusCompleted, LastModified: now.Add(-61 * 24 * time.Hour)},
		types.OrderDetail{Id: 3, Status: types.StatusCompleted, LastModified: now.Add(time.Hour)},
		types.OrderDetail{Id: 4, Status: types.StatusShipping, LastModified: now},
	)
	ctx := context.Background()

	d, err := svc.Refund(ctx, 1, "sách lỗi", customer)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPendingReturn, d.Status)
	assert.Equal(t, "sách lỗi", d.Note)

	_, err = svc.Refund(ctx, 2, "", customer)
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = svc.Refund(ctx, 3, "", customer)
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = svc.Refund(ctx, 4, "", customer)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.Refund(ctx, 2, "", seller)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestConfirm(t *testing.T) {
	svc, repo, _ := newTestService(
		types.OrderDetail{Id: 1, OrderId: 10, Status: types.StatusShipping},
		types.OrderDetail{Id: 2, OrderId: 20, Status: types.StatusShipping},
		types.OrderDetail{Id: 3, OrderId: 30, Status: types.StatusPending},
		types.OrderDetail{Id: 4, OrderId: 40, Status: types.StatusShipping},
	)
	repo.payments[10] = types.PaymentInfo{Id: 1, OrderId: 10, Status: types.PaymentPaid}
	repo.payments[20] = types.PaymentInfo{Id: 2, OrderId: 20, Status: types.PaymentPending}
	ctx := context.Background()

	d, err := svc.Confirm(ctx, 1, customer)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, d.Status)
	assert.Equal(t, types.PaymentPaid, d.PaymentStatus)

	_, err = svc.Confirm(ctx, 2, customer)
	assert.ErrorIs(t, err, ErrInvalidPayment)
	_, err = svc.Confirm(ctx, 3, customer)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.Confirm(ctx, 4, customer)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	_, err = svc.Confirm(ctx, 2, stranger)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestChangeStatus(t *testing.T) {
	svc, _, n := newTestService(types.OrderDetail{Id: 1, Status: types.StatusPending, Note: "giao giờ hành chính"})
	ctx := context.Background()

	d, err := svc.ChangeStatus(ctx, 1, types.StatusShipping, seller)
	require.NoError(t, err)
	assert.Equal(t, types.StatusShipping, d.Status)
	assert.Equal(t, "giao giờ hành chính", d.Note)

	_, err = svc.ChangeStatus(ctx, 1, types.StatusCompleted, customer)
	assert.ErrorIs(t, err, ErrInvalidOwnership)
	_, err = svc.ChangeStatus(ctx, 1, "LOST", admin)
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Len(t, n.changes, 1)
}

func TestListByUser(t *testing.T) {
	svc, _, _ := newTestService(
		types.OrderDetail{Id: 1, Status: types.StatusPending},
		types.OrderDetail{Id: 2, Status: types.StatusPending, UserId: stranger.Id},
	)
	page, err := svc.ListByUser(context.Background(), customer, types.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, page.Ids)

	_, err = svc.ListByUser(context.Background(), nil, types.PageRequest{})
	assert.ErrorIs(t, err, ErrInvalidUser)
}
