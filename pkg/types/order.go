package types

import (
	"slices"
	"time"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusPending        OrderStatus = "PENDING"
	StatusShipping       OrderStatus = "SHIPPING"
	StatusPendingReturn  OrderStatus = "PENDING_RETURN"
	StatusPendingRefund  OrderStatus = "PENDING_REFUND"
	StatusCompleted      OrderStatus = "COMPLETED"
	StatusCanceled       OrderStatus = "CANCELED"
	StatusRefunded       OrderStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type OrderStatusInfo struct {
	Value OrderStatus `json:"value"`
	Label string      `json:"label"`
	Color string      `json:"color"`
}

// OrderStatusTable is a read only lookup of the known statuses, build it once with
// NewOrderStatusTable and share the pointer.
type OrderStatusTable struct {
	order  []OrderStatus
	byCode map[OrderStatus]OrderStatusInfo
}

func NewOrderStatusTable() *OrderStatusTable {
	infos := []OrderStatusInfo{
		{Value: StatusPendingPayment, Label: "Chờ thanh toán", Color: "warning"},
		{Value: StatusPending, Label: "Đang chờ", Color: "warning"},
		{Value: StatusShipping, Label: "Đang giao", Color: "info"},
		{Value: StatusPendingReturn, Label: "Chờ trả hàng", Color: "warning"},
		{Value: StatusPendingRefund, Label: "Chờ hoàn tiền", Color: "warning"},
		{Value: StatusCompleted, Label: "Hoàn thành", Color: "success"},
		{Value: StatusCanceled, Label: "Đã huỷ", Color: "error"},
		{Value: StatusRefunded, Label: "Đã hoàn tiền", Color: "error"},
	}
	t := &OrderStatusTable{
		order:  make([]OrderStatus, 0, len(infos)),
		byCode: make(map[OrderStatus]OrderStatusInfo, len(infos)),
	}
	for _, info := range infos {
		t.order = append(t.order, info.Value)
		t.byCode[info.Value] = info
	}
	return t
}

func (t *OrderStatusTable) Lookup(status OrderStatus) (OrderStatusInfo, bool) {
	info, ok := t.byCode[status]
	return info, ok
}

func (t *OrderStatusTable) Values() []OrderStatus {
	return slices.Clone(t.order)
}

func (t *OrderStatusTable) Infos() []OrderStatusInfo {
	ret := make([]OrderStatusInfo, 0, len(t.order))
	for _, s := range t.order {
		ret = append(ret, t.byCode[s])
	}
	return ret
}

type OrderItem struct {
	BookId   ItemId  `json:"bookId"`
	Title    string  `json:"title"`
	Price    int64   `json:"price"`
	Discount float64 `json:"discount"`
	Quantity int     `json:"quantity"`
}

// OrderDetail is the part of an order placed with one shop.
type OrderDetail struct {
	Id            int64         `json:"id"`
	OrderId       int64         `json:"orderId"`
	UserId        int64         `json:"userId"`
	ShopId        int64         `json:"shopId"`
	ShopOwnerId   int64         `json:"shopOwnerId"`
	ShopName      string        `json:"shopName"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TotalPrice    int64         `json:"totalPrice"`
	TotalDiscount int64         `json:"totalDiscount"`
	ShippingFee   int64         `json:"shippingFee"`
	Note          string        `json:"note,omitempty"`
	OrderedDate   time.Time     `json:"orderedDate"`
	Date          time.Time     `json:"date"`
	LastModified  time.Time     `json:"lastModified"`
	Items         []OrderItem   `json:"items"`
}

// RefundAmount is what goes back to the customer for a refunded detail.
func (d *OrderDetail) RefundAmount() int64 {
	return d.TotalPrice - d.TotalDiscount
}

type PaymentInfo struct {
	Id      int64         `json:"id"`
	OrderId int64         `json:"orderId"`
	Amount  int64         `json:"amount"`
	Type    string        `json:"type"`
	Status  PaymentStatus `json:"status"`
}

// OrderChange is published whenever a detail moves to another status.
type OrderChange struct {
	DetailId int64       `json:"detailId"`
	OrderId  int64       `json:"orderId"`
	UserId   int64       `json:"userId"`
	ShopId   int64       `json:"shopId"`
	From     OrderStatus `json:"from"`
	To       OrderStatus `json:"to"`
	Reason   string      `json:"reason,omitempty"`
	ActorId  int64       `json:"actorId"`
	Time     time.Time   `json:"time"`
}
