// Package watches holds the business rules around the watch store: term
// normalization, uniqueness and all-or-nothing creation.
package watches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/storage"
)

var ErrEmptySearchTerm = errors.New("search term is empty")

type Storage interface {
	Watch(ctx context.Context, searchTerm string) (models.Watch, error)
	SaveWatch(ctx context.Context, watch models.Watch) error
	DeleteWatch(ctx context.Context, searchTerm string) error
	Watches(ctx context.Context) ([]models.Watch, error)
}

type Source interface {
	Fetch(ctx context.Context, searchTerm string) ([]models.Listing, error)
}

type Cache interface {
	WatchList(ctx context.Context) ([]models.Watch, error)
	SaveWatchList(ctx context.Context, watches []models.Watch) error
	Invalidate(ctx context.Context) error
}

type Operator struct {
	storage Storage
	source  Source
	cache   Cache
}

func New(s Storage, src Source, cache Cache) *Operator {
	return &Operator{
		storage: s,
		source:  src,
		cache:   cache,
	}
}

// StartWatch registers a new watch. The current listings seed the known-ID
// set, so the first reconciliation tick reports nothing. If the fetch fails
// the watch is not created at all.
func (o *Operator) StartWatch(ctx context.Context, searchTerm, destination string) error {
	const op = "watches.StartWatch"

	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" {
		return ErrEmptySearchTerm
	}

	// Existence check before touching the source, so a duplicate never
	// costs a page fetch.
	_, err := o.storage.Watch(ctx, searchTerm)
	if err == nil {
		return storage.ErrWatchExists
	}
	if !errors.Is(err, storage.ErrWatchNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	listings, err := o.source.Fetch(ctx, searchTerm)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	knownIDs := make([]string, 0, len(listings))
	seen := make(map[string]struct{}, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		knownIDs = append(knownIDs, l.ID)
	}

	err = o.storage.SaveWatch(ctx, models.Watch{
		SearchTerm:  searchTerm,
		Destination: destination,
		KnownIDs:    knownIDs,
	})
	if err != nil {
		// A concurrent StartWatch may have won the race since the check.
		if errors.Is(err, storage.ErrWatchExists) {
			return storage.ErrWatchExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	_ = o.cache.Invalidate(ctx)

	return nil
}

// StopWatch removes a watch; storage.ErrWatchNotFound if there is none.
func (o *Operator) StopWatch(ctx context.Context, searchTerm string) error {
	const op = "watches.StopWatch"

	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" {
		return ErrEmptySearchTerm
	}

	if err := o.storage.DeleteWatch(ctx, searchTerm); err != nil {
		if errors.Is(err, storage.ErrWatchNotFound) {
			return storage.ErrWatchNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	_ = o.cache.Invalidate(ctx)

	return nil
}

// Watches returns all registered watches for status reporting, served from
// the cache when the snapshot is still warm.
func (o *Operator) Watches(ctx context.Context) ([]models.Watch, error) {
	const op = "watches.Watches"

	list, err := o.cache.WatchList(ctx)
	if err == nil {
		return list, nil
	}
	// Any cache failure, miss or otherwise, falls through to the store.

	list, err = o.storage.Watches(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_ = o.cache.SaveWatchList(ctx, list)

	return list, nil
}
