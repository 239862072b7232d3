package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/source"
	"github.com/NiklasMM/ebk-bot/internal/storage"
	"github.com/NiklasMM/ebk-bot/internal/watches"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	startErr error
	stopErr  error
	listErr  error
	list     []models.Watch

	startedTerm string
	startedDest string
	stoppedTerm string
}

func (r *fakeRegistry) StartWatch(_ context.Context, searchTerm, destination string) error {
	r.startedTerm = searchTerm
	r.startedDest = destination
	return r.startErr
}

func (r *fakeRegistry) StopWatch(_ context.Context, searchTerm string) error {
	r.stoppedTerm = searchTerm
	return r.stopErr
}

func (r *fakeRegistry) Watches(_ context.Context) ([]models.Watch, error) {
	return r.list, r.listErr
}

func testBot(registry Registry) *Bot {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, registry)
}

func TestStartWatching_Replies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "success",
			want: "Ok, I'll start watching 'sofa'",
		},
		{
			name: "already watching",
			err:  storage.ErrWatchExists,
			want: "Hm, looks like I'm watching that already.",
		},
		{
			name: "source down",
			err:  fmt.Errorf("watches.StartWatch: %w", source.ErrUnavailable),
			want: "I couldn't reach the site just now, please try again in a bit.",
		},
		{
			name: "unexpected error",
			err:  errors.New("boom"),
			want: "Something went wrong, sorry.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &fakeRegistry{startErr: tt.err}
			b := testBot(registry)

			got := b.startWatching(context.Background(), "sofa", 42)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, "sofa", registry.startedTerm)
			assert.Equal(t, "42", registry.startedDest, "destination is the chat id")
		})
	}
}

func TestStartWatching_NoArgument(t *testing.T) {
	registry := &fakeRegistry{startErr: watches.ErrEmptySearchTerm}
	b := testBot(registry)

	got := b.startWatching(context.Background(), "   ", 42)
	assert.Equal(t, "Tell me what to watch, e.g. /start_watching sofa", got)
}

func TestStopWatching_Replies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "success",
			want: "Ok. I'll no longer watch sofa",
		},
		{
			name: "not watching",
			err:  storage.ErrWatchNotFound,
			want: "I don't think I am watching that.",
		},
		{
			name: "unexpected error",
			err:  errors.New("boom"),
			want: "Something went wrong, sorry.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &fakeRegistry{stopErr: tt.err}
			b := testBot(registry)

			got := b.stopWatching(context.Background(), "sofa")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_ListsSearchTerms(t *testing.T) {
	registry := &fakeRegistry{list: []models.Watch{
		{SearchTerm: "sofa"},
		{SearchTerm: "fahrrad"},
	}}
	b := testBot(registry)

	got := b.status(context.Background())

	require.Contains(t, got, "I'm currently watching:")
	assert.Contains(t, got, "- sofa\n")
	assert.Contains(t, got, "- fahrrad\n")
}

func TestStatus_StoreError(t *testing.T) {
	registry := &fakeRegistry{listErr: errors.New("boom")}
	b := testBot(registry)

	assert.Equal(t, "Something went wrong, sorry.", b.status(context.Background()))
}
