// Package source runs the upstream fetchers concurrently and merges their
// results into one snapshot. Each fetcher returns a patch; nothing is shared
// while fetches are in flight.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/dcwbuild/internal/api"
	"github.com/pable/dcwbuild/internal/config"
	"github.com/pable/dcwbuild/internal/model"
)

// BungieDisabled is the Bungie status reported until the status fetch succeeds.
const BungieDisabled = 5

// ErrFetchFailed wraps the error of the first fetcher that failed.
var ErrFetchFailed = errors.New("fetch failed")

// Recorder receives the timing and outcome of every fetcher run.
type Recorder interface {
	ObserveSource(name string, d time.Duration, err error)
}

// Env is everything a fetcher may read.
type Env struct {
	Primary   api.Getter
	Secondary api.Getter
	Bungie    api.Getter
	Features  config.Features
	Updated   time.Time
	Log       zerolog.Logger
	Metrics   Recorder
}

func (e *Env) observe(name string, d time.Duration, err error) {
	if e.Metrics != nil {
		e.Metrics.ObserveSource(name, d, err)
	}
}

// Patch writes one fetcher's slice of the snapshot.
type Patch func(*model.Snapshot)

// Fetcher is one named upstream call. Skip returns a non-empty reason to
// leave the fetcher's slice at its empty default. Run returns the patch and
// a short summary for the log.
type Fetcher struct {
	Name string
	Skip func(*Env) string
	Run  func(ctx context.Context, env *Env, d *deps) (Patch, string, error)
}

// deps carries the ordering dependencies between fetchers.
type deps struct {
	clans *clanList
}

// clanList is resolved once by the clans fetcher; per-clan fetchers wait on it.
type clanList struct {
	done chan struct{}
	ids  []string
}

func newClanList() *clanList {
	return &clanList{done: make(chan struct{})}
}

func (c *clanList) resolve(ids []string) {
	c.ids = ids
	close(c.done)
}

func (c *clanList) wait(ctx context.Context) ([]string, error) {
	select {
	case <-c.done:
		return c.ids, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run executes every fetcher concurrently. If any fetcher fails the whole
// run fails and no snapshot is returned.
func Run(ctx context.Context, env Env) (*model.Snapshot, error) {
	return run(ctx, &env, Fetchers())
}

func run(ctx context.Context, env *Env, fetchers []Fetcher) (*model.Snapshot, error) {
	if env.Updated.IsZero() {
		env.Updated = time.Now().UTC()
	}
	d := &deps{clans: newClanList()}
	patches := make([]Patch, len(fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fetchers {
		if f.Skip != nil {
			if reason := f.Skip(env); reason != "" {
				env.Log.Info().Str("source", f.Name).Str("reason", reason).Msg("skipped")
				continue
			}
		}
		g.Go(func() error {
			start := time.Now()
			patch, summary, err := f.Run(gctx, env, d)
			elapsed := time.Since(start)
			env.observe(f.Name, elapsed, err)
			if err != nil {
				env.Log.Error().Err(err).Str("source", f.Name).Dur("duration", elapsed).Msg("fetch failed")
				return fmt.Errorf("%w: %s: %w", ErrFetchFailed, f.Name, err)
			}
			env.Log.Info().Str("source", f.Name).Dur("duration", elapsed).Str("result", summary).Msg("fetched")
			patches[i] = patch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := model.NewSnapshot(env.Updated, BungieDisabled)
	for _, p := range patches {
		if p != nil {
			p(snap)
		}
	}
	return snap, nil
}

// mergeLastChecked keeps the latest stamp per id. Stamps share one fixed-width
// format, so string order is time order.
func mergeLastChecked(dst, src map[string]string) {
	for id, stamp := range src {
		if stamp > dst[id] {
			dst[id] = stamp
		}
	}
}
