package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/order"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// actionStatus labels the shop side status change, it is not a customer action.
const actionStatus order.Action = "status"

var noOrderActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_order_actions_total",
	Help: "The total number of order actions by outcome",
}, []string{"action", "outcome"})

// OrderView is an order detail together with what the detail page renders for it.
type OrderView struct {
	*types.OrderDetail
	StatusInfo *types.OrderStatusInfo `json:"statusInfo,omitempty"`
	Step       *order.StepView        `json:"step,omitempty"`
	Actions    []order.Action         `json:"actions"`
	ShowReason bool                   `json:"showReason"`
}

// orderView leaves the progress block out for statuses it has no content for.
func (ws *WebServer) orderView(detail *types.OrderDetail) OrderView {
	view := OrderView{
		OrderDetail: detail,
		Actions:     order.Actions(detail),
		ShowReason:  order.ShowReason(detail),
	}
	if info, ok := ws.Orders.Statuses().Lookup(detail.Status); ok {
		view.StatusInfo = &info
	}
	step, err := order.StepContent(detail, ws.Location)
	if err == nil {
		view.Step = &step
	} else {
		ws.Log.Debugf("no step content for detail %d: %v", detail.Id, err)
	}
	return view
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type StatusRequest struct {
	Status types.OrderStatus `json:"status" validate:"required"`
}

func (ws *WebServer) OrderStatuses(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	publicHeaders(w, r, "3600")
	return writeJson(w, enc, http.StatusOK, ws.Orders.Statuses().Infos())
}

func (ws *WebServer) ListOrders(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	req, err := types.GetPageRequestFromRequest(r)
	if err != nil {
		return badRequest(err)
	}
	page, err := ws.Orders.ListByUser(r.Context(), acct, *req)
	if err != nil {
		return httpError(err)
	}
	views := types.NewPage[OrderView](page.Page, req.Size, page.TotalElements)
	views.TotalPages = page.TotalPages
	for _, id := range page.Ids {
		detail := page.Entities[id]
		views.Add(id, ws.orderView(&detail))
	}
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, views)
}

func (ws *WebServer) GetOrder(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	id, err := pathId(r)
	if err != nil {
		return err
	}
	detail, err := ws.Orders.Get(r.Context(), id, acct)
	if err != nil {
		return httpError(err)
	}
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, ws.orderView(detail))
}

type transitionFunc func(ctx context.Context, id int64, reason string, acct *types.Account) (*types.OrderDetail, error)

// runTransition performs one order action and reports it to tracking.
func (ws *WebServer) runTransition(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account, action order.Action, reason string, fn transitionFunc) error {
	id, err := pathId(r)
	if err != nil {
		return err
	}
	detail, err := fn(r.Context(), id, reason, acct)
	if err != nil {
		noOrderActions.WithLabelValues(string(action), "rejected").Inc()
		return httpError(err)
	}
	noOrderActions.WithLabelValues(string(action), "ok").Inc()
	if ws.Tracking != nil {
		trackErr := ws.Tracking.TrackOrder(sessionId, detail, types.TrackingAction{Action: string(action), Reason: reason})
		if trackErr != nil {
			ws.Log.Warnf("failed to track %s of detail %d: %v", action, detail.Id, trackErr)
		}
	}
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, ws.orderView(detail))
}

func (ws *WebServer) CancelOrder(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	req := ReasonRequest{}
	if err := ws.decodeBody(r, &req); err != nil {
		return err
	}
	return ws.runTransition(w, r, sessionId, enc, acct, order.ActionCancel, req.Reason, ws.Orders.Cancel)
}

func (ws *WebServer) RefundOrder(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	req := ReasonRequest{}
	if err := ws.decodeBody(r, &req); err != nil {
		return err
	}
	return ws.runTransition(w, r, sessionId, enc, acct, order.ActionRefund, req.Reason, ws.Orders.Refund)
}

func (ws *WebServer) ConfirmOrder(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	return ws.runTransition(w, r, sessionId, enc, acct, order.ActionConfirm, "", func(ctx context.Context, id int64, _ string, acct *types.Account) (*types.OrderDetail, error) {
		return ws.Orders.Confirm(ctx, id, acct)
	})
}

func (ws *WebServer) ChangeOrderStatus(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	req := StatusRequest{}
	if err := ws.decodeBody(r, &req); err != nil {
		return err
	}
	return ws.runTransition(w, r, sessionId, enc, acct, actionStatus, string(req.Status), func(ctx context.Context, id int64, _ string, acct *types.Account) (*types.OrderDetail, error) {
		return ws.Orders.ChangeStatus(ctx, id, req.Status, acct)
	})
}

// RebuyOrder returns the cart lines for the books of a detail still in stock.
func (ws *WebServer) RebuyOrder(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	id, err := pathId(r)
	if err != nil {
		return err
	}
	detail, err := ws.Orders.Get(r.Context(), id, acct)
	if err != nil {
		return httpError(err)
	}
	res, err := order.Rebuy(r.Context(), ws.Index, detail)
	if err != nil {
		noOrderActions.WithLabelValues(string(order.ActionRebuy), "failed").Inc()
		return err
	}
	noOrderActions.WithLabelValues(string(order.ActionRebuy), "ok").Inc()
	if len(res.Lines) == 0 && len(res.OutOfStock) == 0 {
		return common.NewHttpError(http.StatusNotFound, errors.New(order.MessageRebuyFailed))
	}
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, res)
}

// OrderInvoice renders the detail as a pdf for download.
func (ws *WebServer) OrderInvoice(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error {
	id, err := pathId(r)
	if err != nil {
		return err
	}
	detail, err := ws.Orders.Get(r.Context(), id, acct)
	if err != nil {
		return httpError(err)
	}
	buf, err := order.Invoice(detail, ws.Orders.Statuses(), ws.Location)
	if err != nil {
		return err
	}
	noCacheHeaders(w, r)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=invoice-"+strconv.FormatInt(detail.Id, 10)+".pdf")
	w.WriteHeader(http.StatusOK)
	_, err = buf.WriteTo(w)
	return err
}
