package server

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/filter"
	"github.com/matst80/slask-storefront/pkg/order"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Vietnam has no daylight saving, a fixed zone avoids depending on tzdata.
var DefaultLocation = time.FixedZone("ICT", 7*60*60)

type WebServer struct {
	Index    *catalog.Index
	Drafts   filter.DraftStore
	Orders   *order.Service
	Auth     *TokenAuth
	Tracking types.Tracking
	Options  *filter.Options
	Location *time.Location
	Log      *zap.SugaredLogger
	validate *validator.Validate
}

func NewWebServer(idx *catalog.Index, drafts filter.DraftStore, orders *order.Service, auth *TokenAuth, log *zap.SugaredLogger) *WebServer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &WebServer{
		Index:    idx,
		Drafts:   drafts,
		Orders:   orders,
		Auth:     auth,
		Options:  filter.NewOptions(),
		Location: DefaultLocation,
		Log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type handlerFunc = func(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error

func (ws *WebServer) handle(fn handlerFunc) http.HandlerFunc {
	return common.JsonHandler(ws.Tracking, ws.Log, fn)
}

func (ws *WebServer) ClientHandler() *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("OPTIONS /api/", common.RespondToOptions)

	srv.HandleFunc("GET /api/categories", ws.handle(ws.Categories))
	srv.HandleFunc("GET /api/publishers", ws.handle(ws.Publishers))
	srv.HandleFunc("GET /api/filter-options", ws.handle(ws.FilterOptions))
	srv.HandleFunc("GET /api/filter-lists", ws.handle(ws.FilterLists))
	srv.HandleFunc("GET /api/books", ws.handle(ws.Books))
	srv.HandleFunc("POST /api/books", ws.handle(ws.Books))
	srv.HandleFunc("GET /api/books/{id}", ws.handle(ws.GetBook))

	srv.HandleFunc("POST /api/drafts", ws.handle(ws.CreateDraft))
	srv.HandleFunc("GET /api/drafts/{id}", ws.handle(ws.GetDraft))
	srv.HandleFunc("POST /api/drafts/{id}/changes", ws.handle(ws.ChangeDraft))
	srv.HandleFunc("POST /api/drafts/{id}/apply", ws.handle(ws.ApplyDraft))
	srv.HandleFunc("POST /api/drafts/{id}/cancel", ws.handle(ws.CancelDraft))
	srv.HandleFunc("POST /api/drafts/{id}/reset", ws.handle(ws.ResetDraft))
	srv.HandleFunc("DELETE /api/drafts/{id}", ws.handle(ws.DeleteDraft))

	srv.HandleFunc("GET /api/order-statuses", ws.handle(ws.OrderStatuses))
	srv.HandleFunc("GET /api/orders", ws.handle(ws.authorized(ws.ListOrders)))
	srv.HandleFunc("GET /api/orders/{id}", ws.handle(ws.authorized(ws.GetOrder)))
	srv.HandleFunc("POST /api/orders/{id}/cancel", ws.handle(ws.authorized(ws.CancelOrder)))
	srv.HandleFunc("POST /api/orders/{id}/refund", ws.handle(ws.authorized(ws.RefundOrder)))
	srv.HandleFunc("POST /api/orders/{id}/confirm", ws.handle(ws.authorized(ws.ConfirmOrder)))
	srv.HandleFunc("PUT /api/orders/{id}/status", ws.handle(ws.authorized(ws.ChangeOrderStatus)))
	srv.HandleFunc("POST /api/orders/{id}/rebuy", ws.handle(ws.authorized(ws.RebuyOrder)))
	srv.HandleFunc("GET /api/orders/{id}/invoice", ws.handle(ws.authorized(ws.OrderInvoice)))

	return srv
}

func DebugHandler(enableProfiling bool) *http.ServeMux {
	srv := http.NewServeMux()
	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.Handle("/metrics", promhttp.Handler())
	if enableProfiling {
		srv.HandleFunc("/debug/pprof/", pprof.Index)
		srv.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		srv.HandleFunc("/debug/pprof/profile", pprof.Profile)
		srv.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		srv.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return srv
}
