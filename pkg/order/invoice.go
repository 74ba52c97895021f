package order

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
	"github.com/matst80/slask-storefront/pkg/types"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	darkGray   = color.Color{Red: 38, Green: 38, Blue: 34}
	mediumGray = color.Color{Red: 121, Green: 119, Blue: 109}
)

// The core pdf fonts only cover latin-1, Vietnamese text is printed without tone marks.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func pdfText(s string) string {
	s = strings.NewReplacer("đ", "d", "Đ", "D").Replace(s)
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		return s
	}
	return folded
}

func invoiceMoney(amount int64) string {
	return pdfText(FormatCurrency(amount))
}

// Invoice renders an order detail as an A4 pdf.
func Invoice(detail *types.OrderDetail, statuses *types.OrderStatusTable, loc *time.Location) (*bytes.Buffer, error) {
	if detail == nil {
		return nil, ErrDetailNotFound
	}
	if loc == nil {
		loc = time.UTC
	}
	status := string(detail.Status)
	if statuses != nil {
		if info, ok := statuses.Lookup(detail.Status); ok {
			status = info.Label
		}
	}

	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 20, 20)

	m.Row(15, func() {
		m.Col(12, func() {
			m.Text("HOA DON", props.Text{Size: 24, Style: consts.Bold, Color: darkGray})
		})
	})
	m.Row(10, func() {
		m.Col(12, func() {
			m.Text(pdfText(detail.ShopName), props.Text{Size: 16, Style: consts.Bold, Color: darkGray})
		})
	})
	m.Row(5, func() {
		m.Col(6, func() {
			m.Text(fmt.Sprintf("Don hang #%d-%d", detail.OrderId, detail.Id), props.Text{Size: 10, Color: darkGray})
		})
		m.Col(6, func() {
			m.Text("Ngay dat: "+detail.OrderedDate.In(loc).Format(dateLayout), props.Text{Size: 9, Color: mediumGray, Align: consts.Right})
		})
	})
	m.Row(5, func() {
		m.Col(12, func() {
			m.Text("Trang thai: "+pdfText(status), props.Text{Size: 9, Color: mediumGray})
		})
	})
	m.Row(8, func() {})

	header := props.Text{Size: 8, Style: consts.Bold, Color: darkGray}
	right := header
	right.Align = consts.Right
	m.Row(6, func() {
		m.Col(6, func() { m.Text("San pham", header) })
		m.Col(2, func() { m.Text("SL", right) })
		m.Col(2, func() { m.Text("Don gia", right) })
		m.Col(2, func() { m.Text("Thanh tien", right) })
	})

	cell := props.Text{Size: 9, Color: darkGray}
	cellRight := cell
	cellRight.Align = consts.Right
	for _, item := range detail.Items {
		price := int64(float64(item.Price) * (1 - item.Discount))
		m.Row(6, func() {
			m.Col(6, func() { m.Text(pdfText(item.Title), cell) })
			m.Col(2, func() { m.Text(fmt.Sprintf("%d", item.Quantity), cellRight) })
			m.Col(2, func() { m.Text(invoiceMoney(price), cellRight) })
			m.Col(2, func() { m.Text(invoiceMoney(price*int64(item.Quantity)), cellRight) })
		})
	}
	m.Row(8, func() {})

	label := props.Text{Size: 9, Color: mediumGray, Align: consts.Right}
	summary := func(name string, amount int64) {
		m.Row(5, func() {
			m.Col(8, func() {})
			m.Col(2, func() { m.Text(name, label) })
			m.Col(2, func() { m.Text(invoiceMoney(amount), cellRight) })
		})
	}
	summary("Tam tinh", detail.TotalPrice)
	summary("Phi van chuyen", detail.ShippingFee)
	if detail.TotalDiscount > 0 {
		summary("Giam gia", -detail.TotalDiscount)
	}

	total := props.Text{Size: 12, Style: consts.Bold, Color: darkGray, Align: consts.Right}
	m.Row(8, func() {
		m.Col(8, func() {})
		m.Col(2, func() { m.Text("Tong cong", total) })
		m.Col(2, func() { m.Text(invoiceMoney(detail.TotalPrice+detail.ShippingFee-detail.TotalDiscount), total) })
	})

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("render invoice for detail %d: %w", detail.Id, err)
	}
	return &buf, nil
}
