package addWatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/NiklasMM/ebk-bot/internal/lib/api/response"
	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"
	"github.com/NiklasMM/ebk-bot/internal/source"
	"github.com/NiklasMM/ebk-bot/internal/storage"
	"github.com/NiklasMM/ebk-bot/internal/watches"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	validator "github.com/go-playground/validator/v10"
)

type Request struct {
	SearchTerm  string `json:"search_term" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

type Response struct {
	resp.Response
}

type WatchStarter interface {
	StartWatch(ctx context.Context, searchTerm, destination string) error
}

func New(
	log *slog.Logger,
	starter WatchStarter,
	validate *validator.Validate,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.watches.add.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		// The fetch that seeds the known IDs happens inside StartWatch, so
		// the timeout covers one full page load.
		ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
		defer cancel()

		err = starter.StartWatch(ctx, req.SearchTerm, req.Destination)
		switch {
		case errors.Is(err, watches.ErrEmptySearchTerm):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Search term is empty"))

			return
		case errors.Is(err, storage.ErrWatchExists):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, resp.Error("Watch already exists"))

			return
		case errors.Is(err, source.ErrUnavailable):
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, resp.Error("Listing source unavailable"))

			return
		case err != nil:
			log.Error("Failed to start watch", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Watch started", slog.String("search_term", req.SearchTerm))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Response: resp.OK()})
	}
}
