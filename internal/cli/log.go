package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/calvinalkan/urlaccess/internal/config"
	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

// newLogger returns a logger writing to w in the configured format and level.
func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h)
}

// logOutcome logs one accessor call at debug level.
func (a *app) logOutcome(op string, loc urlaccess.Locator, start time.Time, err error) {
	attrs := []any{
		"op", op,
		"locator", loc.String(),
		"code", urlaccess.CodeOf(err).String(),
		"elapsed", time.Since(start),
	}

	if err != nil {
		attrs = append(attrs, "err", err)
	}

	a.log.Debug("access", attrs...)
}
