package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/listing-resolver/internal/catalog"
	"github.com/JakeFAU/listing-resolver/internal/resolver"
)

type errorResponse struct {
	Error    string            `json:"error"`
	Phase    string            `json:"phase,omitempty"`
	Attempts []attemptResponse `json:"attempts,omitempty"`
}

type attemptResponse struct {
	Strategy string `json:"strategy"`
	Error    string `json:"error"`
}

// statusFor maps resolver and catalog errors onto HTTP status codes.
func statusFor(err error) int {
	var all *resolver.AllStrategiesFailedError
	switch {
	case errors.As(err, &all):
		if all.TimedOut() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, resolver.ErrUnsupportedDomain),
		errors.Is(err, resolver.ErrIdentifierNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resolver.ErrRedirectResolutionFailed):
		return http.StatusBadGateway
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var resolveErr *resolver.ResolveError
	if errors.As(err, &resolveErr) {
		resp.Phase = string(resolveErr.Phase)
	}
	var all *resolver.AllStrategiesFailedError
	if errors.As(err, &all) {
		resp.Error = "all strategies failed"
		for _, a := range all.Attempts {
			resp.Attempts = append(resp.Attempts, attemptResponse{Strategy: a.Strategy, Error: a.Cause.Error()})
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		resp = errorResponse{Error: "internal server error"}
	}
	s.writeJSON(w, status, resp)
}
