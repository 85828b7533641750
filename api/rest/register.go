package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps request bodies. The largest one is a balance check with up to MaxBalanceAddresses addresses.
const maxBodyBytes = 1 << 20

// HandlerFunc is a typed request handler. Returned errors of type *Err are written as is,
// anything else becomes a 500.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// Err is an error carrying the HTTP status it should be reported with.
type Err struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *Err) Error() string {
	return e.Message
}

func NewErrf(statusCode int, format string, args ...any) *Err {
	return &Err{
		StatusCode: statusCode,
		Message:    fmt.Sprintf(format, args...),
	}
}

type errorResponse struct {
	Error *Err `json:"error"`
}

// pathParamsSetter is implemented by requests that read values from the route's path variables.
type pathParamsSetter interface {
	setPathParams(vars map[string]string)
}

// RegisterFunc registers fn on router for the given method and path. The JSON body, if any, is decoded
// into the request before the path variables are applied.
func RegisterFunc[Req, Resp any](logger *logrus.Logger, router *mux.Router, method, path string, fn HandlerFunc[Req, Resp]) {
	router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		logger := logger.WithContext(r.Context()).WithFields(logrus.Fields{
			"method": method,
			"route":  path,
		})

		req := new(Req)
		if r.Body != nil {
			dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
			dec.DisallowUnknownFields()
			err := dec.Decode(req)
			if err != nil && !errors.Is(err, io.EOF) {
				logger.WithError(err).Warn("Failed to decode request body")
				writeJSON(logger, w, http.StatusBadRequest, &errorResponse{
					Error: NewErrf(http.StatusBadRequest, "Invalid request body: %v", err),
				})
				return
			}
		}
		if setter, ok := any(req).(pathParamsSetter); ok {
			setter.setPathParams(mux.Vars(r))
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			restErr := &Err{}
			if !errors.As(err, &restErr) {
				logger.WithError(err).Error("Handler returned an unexpected error")
				restErr = NewErrf(http.StatusInternalServerError, "Internal server error")
			}
			writeJSON(logger, w, restErr.StatusCode, &errorResponse{Error: restErr})
			return
		}

		writeJSON(logger, w, http.StatusOK, resp)
	}).Methods(method)
}

func writeJSON(logger *logrus.Entry, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logger.WithError(err).Error("Failed to write response")
	}
}
