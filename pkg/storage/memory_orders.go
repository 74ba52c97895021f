package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/matst80/slask-storefront/pkg/order"
	"github.com/matst80/slask-storefront/pkg/types"
)

// MemoryOrderRepository keeps order details in memory, optionally persisted to disk
// on every save.
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	details  map[int64]types.OrderDetail
	payments map[int64]types.PaymentInfo
	disk     *DiskStorage
}

func NewMemoryOrderRepository(disk *DiskStorage) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		details:  map[int64]types.OrderDetail{},
		payments: map[int64]types.PaymentInfo{},
		disk:     disk,
	}
}

// Load reads the persisted details and payments, missing files are not an error.
func (m *MemoryOrderRepository) Load() error {
	if m.disk == nil {
		return nil
	}
	details := []types.OrderDetail{}
	if err := m.disk.LoadOrders(&details); err != nil && !isNotExist(err) {
		return err
	}
	payments := []types.PaymentInfo{}
	if err := m.disk.LoadPayments(&payments); err != nil && !isNotExist(err) {
		return err
	}
	m.Put(details...)
	m.PutPayments(payments...)
	return nil
}

func (m *MemoryOrderRepository) Put(details ...types.OrderDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range details {
		m.details[d.Id] = cloneDetail(d)
	}
}

func (m *MemoryOrderRepository) PutPayments(payments ...types.PaymentInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range payments {
		m.payments[p.OrderId] = p
	}
}

func cloneDetail(d types.OrderDetail) types.OrderDetail {
	d.Items = slices.Clone(d.Items)
	return d
}

func (m *MemoryOrderRepository) FindDetail(ctx context.Context, id int64) (*types.OrderDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.details[id]
	if !ok {
		return nil, order.ErrDetailNotFound
	}
	ret := cloneDetail(d)
	return &ret, nil
}

func (m *MemoryOrderRepository) FindPayment(ctx context.Context, orderId int64) (*types.PaymentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[orderId]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderId, order.ErrPaymentNotFound)
	}
	return &p, nil
}

func (m *MemoryOrderRepository) SaveDetail(ctx context.Context, detail *types.OrderDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	previous, ok := m.details[detail.Id]
	if !ok {
		return order.ErrDetailNotFound
	}
	m.details[detail.Id] = cloneDetail(*detail)
	if m.disk != nil {
		if err := m.disk.SaveOrders(m.sortedLocked(func(types.OrderDetail) bool { return true })); err != nil {
			m.details[detail.Id] = previous
			return err
		}
	}
	return nil
}

func (m *MemoryOrderRepository) sortedLocked(keep func(types.OrderDetail) bool) []types.OrderDetail {
	ret := make([]types.OrderDetail, 0, len(m.details))
	for _, d := range m.details {
		if keep(d) {
			ret = append(ret, cloneDetail(d))
		}
	}
	slices.SortFunc(ret, func(a, b types.OrderDetail) int {
		if c := b.OrderedDate.Compare(a.OrderedDate); c != 0 {
			return c
		}
		return cmp.Compare(b.Id, a.Id)
	})
	return ret
}

// ListByUser pages the details of a user, newest first.
func (m *MemoryOrderRepository) ListByUser(ctx context.Context, userId int64, req types.PageRequest) (*types.Page[types.OrderDetail], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	details := m.sortedLocked(func(d types.OrderDetail) bool { return d.UserId == userId })
	start, end := req.Offset(len(details))
	page := types.NewPage[types.OrderDetail](req.Page, req.Size, len(details))
	for _, d := range details[start:end] {
		page.Add(fmt.Sprint(d.Id), d)
	}
	return page, nil
}
