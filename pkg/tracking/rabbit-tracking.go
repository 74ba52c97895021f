package tracking

import (
	"net/http"
	"time"

	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/messaging"
	"github.com/matst80/slask-storefront/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	eventSession uint16 = 0
	eventFilter  uint16 = 1
	eventOrder   uint16 = 7
)

const trackingPrefix = "global"

// RabbitTracking queues tracking events and publishes them on the tracking topic.
type RabbitTracking struct {
	country    string
	connection *amqp.Connection
	queue      *common.QueueHandler[any]
	send       func(data any) error
	log        *zap.SugaredLogger
}

func NewRabbitTracking(url, country string, log *zap.SugaredLogger) (*RabbitTracking, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := messaging.DefineTopic(ch, trackingPrefix, messaging.Tracking); err != nil {
		conn.Close()
		return nil, err
	}
	rt := newTracking(country, log, func(data any) error {
		return messaging.SendChange(conn, trackingPrefix, messaging.Tracking, data)
	})
	rt.connection = conn
	return rt, nil
}

func newTracking(country string, log *zap.SugaredLogger, send func(data any) error) *RabbitTracking {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	rt := &RabbitTracking{
		country: country,
		send:    send,
		log:     log,
	}
	rt.queue = common.NewQueueHandler(rt.flush, 50, time.Second)
	return rt
}

func (rt *RabbitTracking) flush(events []any) {
	for _, e := range events {
		if err := rt.send(e); err != nil {
			rt.log.Warnf("failed to send tracking event: %v", err)
		}
	}
}

// Close publishes the queued events and closes the connection.
func (rt *RabbitTracking) Close() error {
	rt.queue.Close()
	if rt.connection != nil {
		return rt.connection.Close()
	}
	return nil
}

type BaseEvent struct {
	SessionId int    `json:"session_id"`
	Country   string `json:"country,omitempty"`
	Context   string `json:"context,omitempty"`
	Event     uint16 `json:"event"`
}

func (rt *RabbitTracking) base(event uint16, sessionId int) *BaseEvent {
	return &BaseEvent{Event: event, SessionId: sessionId, Country: rt.country, Context: "b2c"}
}

type Session struct {
	*BaseEvent
	UserAgent    string `json:"user_agent,omitempty"`
	Ip           string `json:"ip,omitempty"`
	Language     string `json:"language,omitempty"`
	PragmaHeader string `json:"pragma,omitempty"`
}

func clientIp(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (rt *RabbitTracking) TrackSession(sessionId int, r *http.Request) {
	rt.queue.Add(Session{
		BaseEvent:    rt.base(eventSession, sessionId),
		Language:     r.Header.Get("Accept-Language"),
		UserAgent:    r.UserAgent(),
		Ip:           clientIp(r),
		PragmaHeader: r.Header.Get("Pragma"),
	})
}

type FilterEventData struct {
	*BaseEvent
	Filters         types.FilterState `json:"filters"`
	NumberOfResults int               `json:"noi"`
	Page            int               `json:"page"`
	Referer         string            `json:"referer,omitempty"`
}

func (rt *RabbitTracking) TrackFilter(sessionId int, filters *types.FilterState, resultLen int, page int, r *http.Request) {
	rt.queue.Add(&FilterEventData{
		BaseEvent:       rt.base(eventFilter, sessionId),
		Filters:         filters.Clone(),
		NumberOfResults: resultLen,
		Page:            page,
		Referer:         r.Header.Get("Referer"),
	})
}

type OrderEvent struct {
	*BaseEvent
	DetailId int64             `json:"detail_id"`
	Status   types.OrderStatus `json:"status"`
	Action   string            `json:"action"`
	Reason   string            `json:"reason,omitempty"`
}

func (rt *RabbitTracking) TrackOrder(sessionId int, detail *types.OrderDetail, action types.TrackingAction) error {
	rt.queue.Add(&OrderEvent{
		BaseEvent: rt.base(eventOrder, sessionId),
		DetailId:  detail.Id,
		Status:    detail.Status,
		Action:    action.Action,
		Reason:    action.Reason,
	})
	return nil
}
