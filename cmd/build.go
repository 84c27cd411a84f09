package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pable/dcwbuild/internal/aggregator"
	"github.com/pable/dcwbuild/internal/api"
	"github.com/pable/dcwbuild/internal/config"
	"github.com/pable/dcwbuild/internal/logging"
	"github.com/pable/dcwbuild/internal/metrics"
	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/output"
	"github.com/pable/dcwbuild/internal/routes"
	"github.com/pable/dcwbuild/internal/source"
	"github.com/pable/dcwbuild/internal/storage"
)

const bungieKeyHeader = "X-API-Key"

var (
	buildOutput   string
	buildNoLedger bool
	buildPublish  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch all sources and write the site data",
	Long: `Fetch every upstream source concurrently, join and roll up the results, and
write api-status.json, the snapshot, one JSON file per route and the _redirects file.
If any source fails nothing is written and the command exits non-zero.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output directory (overrides output.dir)")
	buildCmd.Flags().BoolVar(&buildNoLedger, "no-ledger", false, "do not record the run in the build ledger")
	buildCmd.Flags().BoolVar(&buildPublish, "publish", false, "upload the written files (overrides publish.enabled)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if buildOutput != "" {
		cfg.Output.Dir = buildOutput
	}
	if buildPublish {
		cfg.Publish.Enabled = true
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	log := logger
	if !cmd.Flags().Changed("log-level") {
		if log, err = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
			return err
		}
	}

	var ledger *storage.DB
	if !buildNoLedger {
		if ledger, err = openLedger(); err != nil {
			return err
		}
		defer ledger.Close()
	}
	return executeBuild(cmd.Context(), cfg, log, ledger)
}

// executeBuild runs one build and records its outcome in the ledger (when
// non-nil) and the metrics textfile (when configured).
func executeBuild(ctx context.Context, cfg *config.Config, log zerolog.Logger, ledger *storage.DB) error {
	id := uuid.NewString()
	started := time.Now().UTC()
	log = log.With().Str("build", id[:8]).Logger()

	if ledger != nil {
		if err := ledger.StartBuild(id, started); err != nil {
			return err
		}
	}

	m := metrics.New()
	snap, files, buildErr := buildSite(ctx, cfg, log, m, started)
	finished := time.Now().UTC()
	m.ObserveBuild(finished.Sub(started), buildErr, finished)
	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Msg("metrics textfile not written")
		}
	}

	if buildErr != nil {
		log.Error().Err(buildErr).Dur("duration", finished.Sub(started)).Msg("build failed")
		if ledger != nil {
			if err := ledger.FailBuild(id, finished, buildErr); err != nil {
				log.Warn().Err(err).Msg("ledger not updated")
			}
		}
		return buildErr
	}

	if ledger != nil {
		if err := ledger.SaveStandings(id, snap); err != nil {
			return fmt.Errorf("save standings: %w", err)
		}
		if err := ledger.FinishBuild(id, finished, snap, files); err != nil {
			return err
		}
	}
	log.Info().
		Int("clans", len(snap.Clans)).
		Int("members", len(snap.Members)).
		Int("events", len(snap.Events)).
		Int("files", files).
		Dur("duration", finished.Sub(started)).
		Msg("build complete")
	return nil
}

// buildSite runs the pipeline and returns the snapshot and the number of files written.
func buildSite(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics, updated time.Time) (*model.Snapshot, int, error) {
	env := source.Env{
		Primary:   api.NewClient(cfg.API.PrimaryURL, cfg.API.Timeout, api.WithRateLimit(cfg.API.RequestsPerSecond)),
		Secondary: api.NewClient(cfg.SecondaryAPI(), cfg.API.Timeout, api.WithRateLimit(cfg.API.RequestsPerSecond)),
		Bungie:    api.NewClient(cfg.Bungie.URL, cfg.API.Timeout, api.WithAPIKey(bungieKeyHeader, cfg.Bungie.APIKey)),
		Features:  cfg.Features,
		Updated:   updated,
		Log:       log,
		Metrics:   m,
	}

	// ---- Pass 1: fetch and merge ----
	snap, err := source.Run(ctx, env)
	if err != nil {
		return nil, 0, err
	}

	// ---- Pass 2: join and roll up ----
	if err := aggregator.Aggregate(snap, aggregator.Options{MinimumGames: cfg.Stats.MinimumGames}); err != nil {
		return nil, 0, fmt.Errorf("aggregate: %w", err)
	}
	m.ObserveSnapshot(snap)

	// ---- Pass 3: routes and files ----
	site := routes.Assemble(snap, cfg.Site.URL)
	w := output.NewWriter(cfg.Output.Dir, cfg.Output.Compress)
	if err := w.WriteSite(snap, site); err != nil {
		return nil, 0, err
	}
	log.Info().Str("dir", w.Dir()).Int("routes", len(site.Routes)).Int("redirects", len(site.Redirects)).Msg("site data written")

	if cfg.Publish.Enabled {
		p, err := output.NewS3Publisher(ctx, cfg.Publish)
		if err != nil {
			return nil, 0, err
		}
		if err := p.Publish(ctx, w.Dir(), w.Files()); err != nil {
			return nil, 0, err
		}
		log.Info().Str("bucket", cfg.Publish.Bucket).Int("files", len(w.Files())).Msg("published")
	}
	return snap, len(w.Files()), nil
}
