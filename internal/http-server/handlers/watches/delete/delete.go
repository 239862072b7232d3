package deleteWatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/NiklasMM/ebk-bot/internal/lib/api/response"
	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"
	"github.com/NiklasMM/ebk-bot/internal/storage"
	"github.com/NiklasMM/ebk-bot/internal/watches"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
}

type WatchStopper interface {
	StopWatch(ctx context.Context, searchTerm string) error
}

func New(
	log *slog.Logger,
	stopper WatchStopper,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.watches.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		searchTerm := r.URL.Query().Get("term")

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		err := stopper.StopWatch(ctx, searchTerm)
		switch {
		case errors.Is(err, watches.ErrEmptySearchTerm):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Search term is empty"))

			return
		case errors.Is(err, storage.ErrWatchNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("Watch not found"))

			return
		case err != nil:
			log.Error("Failed to stop watch", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Watch stopped", slog.String("search_term", searchTerm))

		render.JSON(w, r, Response{Response: resp.OK()})
	}
}
