package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/matst80/slask-storefront/pkg/order"
	"github.com/matst80/slask-storefront/pkg/types"
	"go.uber.org/zap"
)

const (
	detailTable  = "order_details"
	itemTable    = "order_items"
	paymentTable = "payments"
	detailFields = "id, order_id, user_id, shop_id, shop_owner_id, shop_name, status, payment_status, " +
		"total_price, total_discount, shipping_fee, note, ordered_date, date, last_modified"
)

// Querier is satisfied by both a pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the part of *pgxpool.Pool the repository uses.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Pool = (*pgxpool.Pool)(nil)

type PostgresOrderRepository struct {
	pool Pool
	log  *zap.SugaredLogger
}

func NewPostgresOrderRepository(pool Pool, log *zap.SugaredLogger) *PostgresOrderRepository {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PostgresOrderRepository{pool: pool, log: log}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func scanDetail(row pgx.Row) (*types.OrderDetail, error) {
	var d types.OrderDetail
	var status, paymentStatus string
	err := row.Scan(
		&d.Id, &d.OrderId, &d.UserId, &d.ShopId, &d.ShopOwnerId, &d.ShopName,
		&status, &paymentStatus, &d.TotalPrice, &d.TotalDiscount, &d.ShippingFee,
		&d.Note, &d.OrderedDate, &d.Date, &d.LastModified,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrDetailNotFound
		}
		return nil, fmt.Errorf("scan order detail: %w", err)
	}
	d.Status = types.OrderStatus(status)
	d.PaymentStatus = types.PaymentStatus(paymentStatus)
	d.Items = []types.OrderItem{}
	return &d, nil
}

func (r *PostgresOrderRepository) FindDetail(ctx context.Context, id int64) (*types.OrderDetail, error) {
	query, args, err := psql.Select(detailFields).From(detailTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build detail query: %w", err)
	}
	detail, err := scanDetail(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, r.pool, map[int64]*types.OrderDetail{detail.Id: detail}); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, q Querier, details map[int64]*types.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(details))
	for id := range details {
		ids = append(ids, id)
	}
	query, args, err := psql.Select("detail_id, book_id, title, price, discount, quantity").
		From(itemTable).
		Where(sq.Eq{"detail_id": ids}).
		OrderBy("detail_id", "book_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build item query: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var detailId int64
		var bookId int64
		var item types.OrderItem
		if err := rows.Scan(&detailId, &bookId, &item.Title, &item.Price, &item.Discount, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.BookId = types.ItemId(bookId)
		if d, ok := details[detailId]; ok {
			d.Items = append(d.Items, item)
		}
	}
	return rows.Err()
}

func (r *PostgresOrderRepository) FindPayment(ctx context.Context, orderId int64) (*types.PaymentInfo, error) {
	query, args, err := psql.Select("id, order_id, amount, type, status").
		From(paymentTable).
		Where(sq.Eq{"order_id": orderId}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payment query: %w", err)
	}
	var p types.PaymentInfo
	var status string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.Id, &p.OrderId, &p.Amount, &p.Type, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderId, order.ErrPaymentNotFound)
		}
		return nil, err
	}
	p.Status = types.PaymentStatus(status)
	return &p, nil
}

// SaveDetail writes the mutable part of a detail, status, payment status, note and dates.
func (r *PostgresOrderRepository) SaveDetail(ctx context.Context, detail *types.OrderDetail) error {
	query, args, err := psql.Update(detailTable).
		Set("status", string(detail.Status)).
		Set("payment_status", string(detail.PaymentStatus)).
		Set("note", detail.Note).
		Set("date", detail.Date).
		Set("last_modified", detail.LastModified).
		Where(sq.Eq{"id": detail.Id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build detail update: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return order.ErrDetailNotFound
	}
	return nil
}

// CreateDetail inserts a detail with its items in one transaction.
func (r *PostgresOrderRepository) CreateDetail(ctx context.Context, detail *types.OrderDetail) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Warnf("rollback failed: %v", rbErr)
		}
	}()

	query, args, err := psql.Insert(detailTable).
		Columns("order_id", "user_id", "shop_id", "shop_owner_id", "shop_name", "status", "payment_status",
			"total_price", "total_discount", "shipping_fee", "note", "ordered_date", "date", "last_modified").
		Values(detail.OrderId, detail.UserId, detail.ShopId, detail.ShopOwnerId, detail.ShopName, string(detail.Status),
			string(detail.PaymentStatus), detail.TotalPrice, detail.TotalDiscount, detail.ShippingFee, detail.Note,
			detail.OrderedDate, detail.Date, detail.LastModified).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build detail insert: %w", err)
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&detail.Id); err != nil {
		return err
	}
	if len(detail.Items) > 0 {
		insert := psql.Insert(itemTable).Columns("detail_id", "book_id", "title", "price", "discount", "quantity")
		for _, item := range detail.Items {
			insert = insert.Values(detail.Id, int64(item.BookId), item.Title, item.Price, item.Discount, item.Quantity)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userId int64, req types.PageRequest) (*types.Page[types.OrderDetail], error) {
	countQuery, countArgs, err := psql.Select("COUNT(*)").From(detailTable).Where(sq.Eq{"user_id": userId}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, err
	}
	page := types.NewPage[types.OrderDetail](req.Page, req.Size, total)
	start, end := req.Offset(total)
	if start >= end {
		return page, nil
	}

	query, args, err := psql.Select(detailFields).
		From(detailTable).
		Where(sq.Eq{"user_id": userId}).
		OrderBy("ordered_date DESC", "id DESC").
		Limit(uint64(end - start)).
		Offset(uint64(start)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	ordered := []*types.OrderDetail{}
	byId := map[int64]*types.OrderDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		ordered = append(ordered, d)
		byId[d.Id] = d
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, r.pool, byId); err != nil {
		return nil, err
	}
	for _, d := range ordered {
		page.Add(fmt.Sprint(d.Id), *d)
	}
	return page, nil
}
