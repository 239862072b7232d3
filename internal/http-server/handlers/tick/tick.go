// Package runTick exposes one manually triggered reconciliation pass, mainly
// for smoke-testing a deployment without waiting for the scheduler.
package runTick

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/NiklasMM/ebk-bot/internal/lib/api/response"
	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
}

type Ticker interface {
	Tick(ctx context.Context) error
}

func New(
	log *slog.Logger,
	ticker Ticker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tick.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		if err := ticker.Tick(ctx); err != nil {
			log.Error("Manual tick failed", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Manual tick completed")

		render.JSON(w, r, Response{Response: resp.OK()})
	}
}
