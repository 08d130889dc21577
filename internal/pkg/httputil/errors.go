package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/firemap/internal/pkg/ctxlog"
)

// ErrorMapping maps a sentinel error to a status. An empty Message sends err.Error().
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// HandleError writes the response for err. The first mapping that matches
// wins. A request whose context ran out gets 504; a client that went away
// gets nothing. Anything else is logged and reported as 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	logger := ctxlog.FromContext(ctx)

	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		if m.Status >= http.StatusInternalServerError {
			logger.Warn("request failed", "status", m.Status, "error", err)
		}
		Error(w, m.Status, msg)
		return
	}

	switch {
	case errors.Is(err, context.Canceled):
		logger.Debug("client went away", "error", err)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", "error", err)
		Error(w, http.StatusGatewayTimeout, "request timed out")
	default:
		logger.Error("internal error", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
