package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/store"
)

// Restore builds an engine resumed from an existing store: the version log
// is chain-verified, the latest snapshot of every thread becomes the
// in-memory head, the fragment registry is reloaded, and the clock is
// positioned at the highest committed tick. The resumed engine produces the
// same future states a never-stopped engine would have.
func Restore(ctx context.Context, s *store.Store, cfg config.Config, opts ...Option) (*Engine, error) {
	if err := s.VerifyAll(ctx); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	maxTick, err := s.MaxTick(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	e := New(s, cfg, append(opts, WithClock(NewTickClockAt(maxTick)))...)

	threadIDs, err := s.ListThreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	for _, tid := range threadIDs {
		head, err := s.ReadLatest(ctx, tid)
		if err != nil {
			return nil, fmt.Errorf("restore thread %s: %w", tid, err)
		}
		e.threads[tid] = newThreadState(head)
	}

	stored, err := s.LoadFragments(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	for _, sf := range stored {
		e.fragments[sf.Fragment.ID] = sf.Fragment
		e.owner[sf.Fragment.ID] = sf.ThreadID
		if ts, ok := e.threads[sf.ThreadID]; ok {
			ts.absorb(sf.Fragment)
		}
	}

	slog.Info("engine restored",
		"threads", len(e.threads), "fragments", len(e.fragments), "tick", maxTick)
	return e, nil
}
