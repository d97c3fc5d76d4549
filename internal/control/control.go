// Package control is the HTTP remote for a running slideshow.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/scheduler"
	"github.com/ivlev/kenburns/internal/telemetry"
)

// Controller is the part of the scheduler the remote drives.
type Controller interface {
	Start() error
	Stop() error
	Pause() error
	Resume() error
	Next() error
	Previous() error
	Status() (scheduler.Status, error)
}

type handler struct {
	ctl    Controller
	logger zerolog.Logger
}

// NewRouter wires the control routes. metrics may be nil.
func NewRouter(ctl Controller, metrics *telemetry.Metrics, logger zerolog.Logger) http.Handler {
	h := &handler{ctl: ctl, logger: logger.With().Str("component", "control").Logger()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if metrics != nil {
		r.Use(metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Get("/status", h.status)
	r.Get("/qr", h.qr)
	r.Post("/start", h.action("start", ctl.Start))
	r.Post("/stop", h.action("stop", ctl.Stop))
	r.Post("/pause", h.action("pause", ctl.Pause))
	r.Post("/resume", h.action("resume", ctl.Resume))
	r.Post("/next", h.action("next", ctl.Next))
	r.Post("/previous", h.action("previous", ctl.Previous))
	return r
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.Status()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// qr answers with a PNG QR code of this remote's status URL, for pairing a
// phone.
func (h *handler) qr(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	png, err := qrcode.Encode(fmt.Sprintf("%s://%s/status", scheme, r.Host), qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// action runs fn and answers with the resulting status. An invalid duration
// setup surfaces as 422 instead of taking the process down.
func (h *handler) action(name string, fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := guard(fn); err != nil {
			h.logger.Warn().Err(err).Str("action", name).Str("request_id", middleware.GetReqID(r.Context())).Msg("control action failed")
			switch {
			case errors.Is(err, config.ErrInvalidDurations):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			case errors.Is(err, scheduler.ErrClosed):
				writeError(w, http.StatusServiceUnavailable, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		h.logger.Debug().Str("action", name).Msg("control action")
		h.status(w, r)
	}
}

func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			perr, ok := rec.(error)
			if !ok || !errors.Is(perr, config.ErrInvalidDurations) {
				panic(rec)
			}
			err = perr
		}
	}()
	return fn()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve runs the remote on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("control server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
