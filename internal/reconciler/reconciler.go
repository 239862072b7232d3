// Package reconciler implements the periodic fetch-diff-notify-commit cycle.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"
	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/storage"
)

type Storage interface {
	Watches(ctx context.Context) ([]models.Watch, error)
	UpdateKnownIDs(ctx context.Context, searchTerm string, knownIDs []string) error
}

type Source interface {
	Fetch(ctx context.Context, searchTerm string) ([]models.Listing, error)
}

type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}

type Reconciler struct {
	log      *slog.Logger
	storage  Storage
	source   Source
	notifier Notifier
}

func New(log *slog.Logger, s Storage, src Source, n Notifier) *Reconciler {
	return &Reconciler{
		log:      log,
		storage:  s,
		source:   src,
		notifier: n,
	}
}

// Tick runs one reconciliation pass over a snapshot of all watches. A watch
// whose fetch fails is skipped and logged; only an unreadable store aborts
// the whole tick.
func (r *Reconciler) Tick(ctx context.Context) error {
	const op = "reconciler.Tick"

	watchList, err := r.storage.Watches(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, w := range watchList {
		if err := r.reconcile(ctx, w); err != nil {
			r.log.Error("reconciliation failed",
				slog.String("search_term", w.SearchTerm),
				sl.Err(err),
			)
		}
	}

	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, w models.Watch) error {
	const op = "reconciler.reconcile"

	listings, err := r.source.Fetch(ctx, w.SearchTerm)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(listings) == 0 && len(w.KnownIDs) > 0 {
		// More likely a markup change than every single ad vanishing.
		r.log.Warn("zero listings for previously non-empty watch",
			slog.String("search_term", w.SearchTerm),
		)
	}

	known := make(map[string]struct{}, len(w.KnownIDs))
	for _, id := range w.KnownIDs {
		known[id] = struct{}{}
	}

	knownIDs := w.KnownIDs
	newCount := 0

	for _, l := range listings {
		if _, ok := known[l.ID]; ok {
			continue
		}
		// Marking it here also collapses duplicate IDs within this fetch.
		known[l.ID] = struct{}{}
		knownIDs = append(knownIDs, l.ID)
		newCount++

		text := fmt.Sprintf("New item for %s (%s): %s", w.SearchTerm, l.Price, l.URL)
		if err := r.notifier.Send(ctx, w.Destination, text); err != nil {
			// Delivery is best effort; the ID is still committed so the
			// listing can never be announced twice.
			r.log.Error("failed to queue notification",
				slog.String("search_term", w.SearchTerm),
				sl.Err(err),
			)
		}
	}

	if newCount == 0 {
		return nil
	}

	if err := r.storage.UpdateKnownIDs(ctx, w.SearchTerm, knownIDs); err != nil {
		if errors.Is(err, storage.ErrWatchNotFound) {
			// The watch was stopped while this tick was running.
			r.log.Debug("watch removed mid-tick, dropping commit",
				slog.String("search_term", w.SearchTerm),
			)
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	r.log.Info("new listings found",
		slog.String("search_term", w.SearchTerm),
		slog.Int("count", newCount),
	)

	return nil
}
