package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/matst80/slask-storefront/pkg/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrUnknownStatus = errors.New("unknown order status")

const (
	timeLayout = "15:04"
	dateLayout = "02/01/2006"
)

// StepView is the progress shown for an order detail, Step runs from 1 to 4.
type StepView struct {
	Step    int    `json:"step"`
	Summary string `json:"summary"`
}

var printer = message.NewPrinter(language.Vietnamese)

// FormatCurrency renders an amount in dong, 90000 becomes "90.000 ₫".
func FormatCurrency(amount int64) string {
	return printer.Sprintf("%d ₫", amount)
}

func formatMoment(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(timeLayout) + " " + t.Format(dateLayout)
}

// StepContent maps the status of a detail to its progress step. Statuses outside the
// known set return ErrUnknownStatus and no view.
func StepContent(detail *types.OrderDetail, loc *time.Location) (StepView, error) {
	if detail == nil {
		return StepView{}, fmt.Errorf("%w: no detail", ErrUnknownStatus)
	}
	switch detail.Status {
	case types.StatusPendingPayment:
		return StepView{1, "Đang chờ thanh toán đơn hàng."}, nil
	case types.StatusPending:
		return StepView{1, "Đang chờ nhận hàng từ shop."}, nil
	case types.StatusShipping:
		return StepView{2, "Đang giao hàng cho đơn vị vận chuyển."}, nil
	case types.StatusPendingReturn:
		return StepView{3, "Đang chờ hoàn trả hàng."}, nil
	case types.StatusPendingRefund:
		return StepView{3, "Đang chờ hoàn tiền."}, nil
	case types.StatusCompleted:
		return StepView{4, "Cảm ơn bạn đã mua hàng!"}, nil
	case types.StatusCanceled:
		return StepView{1, fmt.Sprintf("Đã huỷ đơn vào %s.", formatMoment(detail.Date, loc))}, nil
	case types.StatusRefunded:
		return StepView{4, fmt.Sprintf("Đã hoàn trả %s vào tài khoản vào %s.",
			FormatCurrency(detail.RefundAmount()), formatMoment(detail.Date, loc))}, nil
	}
	return StepView{}, fmt.Errorf("%w: %q", ErrUnknownStatus, detail.Status)
}
