package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dcwbuild/internal/config"
	"github.com/pable/dcwbuild/internal/source"
	"github.com/pable/dcwbuild/internal/storage"
)

// brokenUpstream answers every endpoint with an empty but valid payload,
// except fail, which returns 500.
func brokenUpstream(t *testing.T, fail string) string {
	t.Helper()
	bodies := map[string]string{
		"/Clan/AcceptingNewClans":     `true`,
		"/Event/GetCurrentAlert":      `null`,
		"/Destiny2/Milestones":        `{"ErrorCode": 1}`,
		"/Leaderboard/GetLeaderboard": `null`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == fail {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			body = `[]`
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func testConfig(base, outDir, textfile string) *config.Config {
	return &config.Config{
		API:     config.API{PrimaryURL: base, Timeout: 5 * time.Second},
		Bungie:  config.Bungie{URL: base},
		Stats:   config.Stats{MinimumGames: 1},
		Site:    config.Site{URL: "https://example.com"},
		Output:  config.Output{Dir: outDir},
		Metrics: config.Metrics{Textfile: textfile},
	}
}

func openTestLedger(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExecuteBuild_FetchFailureLeavesOutputUntouched(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(out, 0o755))
	previous := filepath.Join(out, "api-status.json")
	require.NoError(t, os.WriteFile(previous, []byte(`{"previous":true}`), 0o644))
	textfile := filepath.Join(root, "dcwbuild.prom")

	ledger := openTestLedger(t)
	cfg := testConfig(brokenUpstream(t, "/Component/GetAllModifiers"), out, textfile)

	err := executeBuild(context.Background(), cfg, zerolog.Nop(), ledger)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFetchFailed)
	assert.Contains(t, err.Error(), "modifiers")

	// The previous build is still served and nothing was staged beside it.
	data, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, `{"previous":true}`, string(data))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	siblings, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range siblings {
		assert.False(t, strings.HasPrefix(e.Name(), ".public-"), "staging dir %s left behind", e.Name())
	}

	builds, err := ledger.ListBuilds(0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, storage.StatusFailed, builds[0].Status)
	assert.Contains(t, builds[0].Error, "modifiers")
	assert.False(t, builds[0].FinishedAt.IsZero())

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "dcwbuild_build_success 0")
}

func TestExecuteBuild_FetchFailureCreatesNoOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	cfg := testConfig(brokenUpstream(t, "/Clan/GetAllClans"), out, "")

	err := executeBuild(context.Background(), cfg, zerolog.Nop(), nil)
	assert.ErrorIs(t, err, source.ErrFetchFailed)
	assert.NoDirExists(t, out)
}
