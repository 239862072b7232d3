package listWatches

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/NiklasMM/ebk-bot/internal/lib/api/response"
	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"
	"github.com/NiklasMM/ebk-bot/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type WatchInfo struct {
	SearchTerm  string `json:"search_term"`
	Destination string `json:"destination"`
	KnownCount  int    `json:"known_count"`
}

type Response struct {
	resp.Response
	Watches []WatchInfo `json:"watches"`
}

type WatchLister interface {
	Watches(ctx context.Context) ([]models.Watch, error)
}

func New(
	log *slog.Logger,
	lister WatchLister,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.watches.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		watchList, err := lister.Watches(ctx)
		if err != nil {
			log.Error("Failed to list watches", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		// The known-ID sets can get large; the ops view only needs counts.
		infos := make([]WatchInfo, 0, len(watchList))
		for _, watch := range watchList {
			infos = append(infos, WatchInfo{
				SearchTerm:  watch.SearchTerm,
				Destination: watch.Destination,
				KnownCount:  len(watch.KnownIDs),
			})
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Watches:  infos,
		})
	}
}
