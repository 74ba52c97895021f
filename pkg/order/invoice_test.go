package order

import (
	"bytes"
	"testing"
	"time"

	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPdfTextFoldsMarks(t *testing.T) {
	assert.Equal(t, "Dang giao", pdfText("Đang giao"))
	assert.Equal(t, "Tieu thuyet dien anh", pdfText("Tiểu thuyết điện ảnh"))
	assert.Equal(t, "plain", pdfText("plain"))
}

func TestInvoice(t *testing.T) {
	detail := &types.OrderDetail{
		Id:            100,
		OrderId:       10,
		ShopName:      "Nhà sách Đông Á",
		Status:        types.StatusCompleted,
		TotalPrice:    190000,
		TotalDiscount: 10000,
		ShippingFee:   30000,
		OrderedDate:   time.Date(2024, 5, 18, 9, 0, 0, 0, time.UTC),
		Items: []types.OrderItem{
			{BookId: 1, Title: "Số đỏ", Price: 100000, Quantity: 1, Discount: 0.1},
			{BookId: 2, Title: "Dế mèn phiêu lưu ký", Price: 50000, Quantity: 2},
		},
	}
	buf, err := Invoice(detail, types.NewOrderStatusTable(), time.UTC)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestInvoiceWithoutDetail(t *testing.T) {
	_, err := Invoice(nil, types.NewOrderStatusTable(), nil)
	assert.ErrorIs(t, err, ErrDetailNotFound)
}
