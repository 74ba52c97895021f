package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matst80/slask-storefront/pkg/types"
	"go.uber.org/zap"
)

// HttpError carries the status a handler error should be answered with.
type HttpError struct {
	Status int
	Err    error
}

func (e *HttpError) Error() string {
	return e.Err.Error()
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func NewHttpError(status int, err error) error {
	return &HttpError{Status: status, Err: err}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type statusWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *statusWriter) WriteHeader(status int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func JsonHandler(trk types.Tracking, log *zap.SugaredLogger, fn func(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		sessionId := HandleSessionCookie(trk, w, r)
		sw := &statusWriter{ResponseWriter: w}
		sw.Header().Set("Content-Type", "application/json")

		err := fn(sw, r, sessionId, json.NewEncoder(sw))
		if err == nil {
			return
		}
		if sw.wrote {
			log.Errorf("error handling %s %s: %v", r.Method, r.URL.Path, err)
			return
		}
		status := http.StatusInternalServerError
		var httpErr *HttpError
		if errors.As(err, &httpErr) {
			status = httpErr.Status
		}
		if status >= http.StatusInternalServerError {
			log.Errorf("error handling %s %s: %v", r.Method, r.URL.Path, err)
		} else {
			log.Debugf("rejected %s %s: %v", r.Method, r.URL.Path, err)
		}
		sw.WriteHeader(status)
		if encErr := json.NewEncoder(sw).Encode(ErrorResponse{Error: err.Error()}); encErr != nil {
			log.Warnf("failed to write error response: %v", encErr)
		}
	}
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusAccepted)
}
