package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/filter"
	"github.com/matst80/slask-storefront/pkg/order"
	"github.com/matst80/slask-storefront/pkg/types"
)

func defaultHeaders(w http.ResponseWriter, r *http.Request, cacheTime string) {
	w.Header().Set("Cache-Control", "private, stale-while-revalidate="+cacheTime)
	genericHeaders(w, r)
}

func publicHeaders(w http.ResponseWriter, r *http.Request, cacheTime string) {
	w.Header().Set("Cache-Control", "public, max-age="+cacheTime)
	genericHeaders(w, r)
}

func noCacheHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	genericHeaders(w, r)
}

func genericHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
}

// httpError attaches the response status for the domain errors handlers return.
func httpError(err error) error {
	if err == nil {
		return nil
	}
	var httpErr *common.HttpError
	if errors.As(err, &httpErr) {
		return err
	}
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return common.NewHttpError(http.StatusBadRequest, err)
	case errors.Is(err, ErrUnauthorized):
		return common.NewHttpError(http.StatusUnauthorized, err)
	case errors.Is(err, order.ErrDetailNotFound),
		errors.Is(err, order.ErrPaymentNotFound),
		errors.Is(err, filter.ErrDraftNotFound),
		errors.Is(err, catalog.ErrBookNotFound):
		return common.NewHttpError(http.StatusNotFound, err)
	case errors.Is(err, order.ErrInvalidUser),
		errors.Is(err, order.ErrInvalidOwnership):
		return common.NewHttpError(http.StatusForbidden, err)
	case errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, order.ErrInvalidDate),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, filter.ErrUnknownChange),
		errors.Is(err, filter.ErrUnknownPreset),
		errors.Is(err, types.ErrInvalidRating):
		return common.NewHttpError(http.StatusBadRequest, err)
	}
	return err
}

func badRequest(err error) error {
	return common.NewHttpError(http.StatusBadRequest, err)
}

// decodeBody reads a json body into v and validates it, an empty body leaves v untouched.
func (ws *WebServer) decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest(fmt.Errorf("invalid body: %w", err))
	}
	if err := ws.validate.Struct(v); err != nil {
		return badRequest(err)
	}
	return nil
}

func pathId(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(fmt.Errorf("invalid id %q", r.PathValue("id")))
	}
	return id, nil
}

func writeJson(w http.ResponseWriter, enc *json.Encoder, status int, data any) error {
	w.WriteHeader(status)
	return enc.Encode(data)
}
