// Package output writes a build's artifacts to disk and publishes them.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/routes"
)

const (
	APIStatusFile = "api-status.json"
	SnapshotFile  = "snapshot.json"
	RedirectsFile = "_redirects"
	RoutesDir     = "routes"
	FeedsDir      = "feeds"
)

// ErrForeignOutput marks an output directory that holds files but no
// previous build, so replacing it could destroy unrelated content.
var ErrForeignOutput = errors.New("output directory is not a previous build")

// Writer stages every artifact in a sibling directory and swaps it into
// place only once all of them are written, so a failed build leaves the
// previous output untouched.
type Writer struct {
	dir      string
	compress bool
	files    []string
}

func NewWriter(dir string, compress bool) *Writer {
	return &Writer{dir: dir, compress: compress}
}

// Files lists the written artifacts relative to the output directory.
func (w *Writer) Files() []string {
	out := append([]string(nil), w.files...)
	sort.Strings(out)
	return out
}

// Dir is the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteSite writes the status, the snapshot, one file per route and feed,
// and the redirects file.
func (w *Writer) WriteSite(snap *model.Snapshot, site *routes.Site) error {
	if err := checkOwned(w.dir); err != nil {
		return err
	}
	parent := filepath.Dir(filepath.Clean(w.dir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}
	stage, err := os.MkdirTemp(parent, "."+filepath.Base(w.dir)+"-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	w.files = nil
	if err := w.writeJSON(stage, APIStatusFile, snap.ApiStatus); err != nil {
		return err
	}
	if err := w.writeSnapshot(stage, snap); err != nil {
		return err
	}
	for _, r := range site.Routes {
		if err := w.writeJSON(stage, RouteFile(r.Path), r); err != nil {
			return err
		}
	}
	for _, f := range site.Feeds {
		if err := w.writeJSON(stage, filepath.Join(FeedsDir, f.Name+".json"), f); err != nil {
			return err
		}
	}
	if err := w.writeFile(stage, RedirectsFile, []byte(routes.RedirectsFile(site.Redirects))); err != nil {
		return err
	}

	// MkdirTemp creates 0700; the published tree must be world-readable.
	if err := os.Chmod(stage, 0o755); err != nil {
		return fmt.Errorf("chmod staging dir: %w", err)
	}
	return swap(stage, w.dir)
}

// checkOwned accepts a missing or empty directory, or one holding a
// previous build's api-status marker.
func checkOwned(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read output dir: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, APIStatusFile)); err != nil {
		return fmt.Errorf("%s: %w", dir, ErrForeignOutput)
	}
	return nil
}

// swap moves stage into dir. The previous output is renamed aside first and
// only removed once the new tree is in place; on failure it is restored.
func swap(stage, dir string) error {
	prev := stage + "-prev"
	hadPrev := false
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, prev); err != nil {
			return fmt.Errorf("move previous output aside: %w", err)
		}
		hadPrev = true
	}
	if err := os.Rename(stage, dir); err != nil {
		if hadPrev {
			_ = os.Rename(prev, dir)
		}
		return fmt.Errorf("move output into place: %w", err)
	}
	if hadPrev {
		if err := os.RemoveAll(prev); err != nil {
			return fmt.Errorf("remove previous output: %w", err)
		}
	}
	return nil
}

// RouteFile maps a route path to its data file, e.g. "/clans/1/" to
// "routes/clans/1/index.json".
func RouteFile(path string) string {
	clean := strings.Trim(path, "/")
	return filepath.Join(RoutesDir, filepath.FromSlash(clean), "index.json")
}

func (w *Writer) writeSnapshot(root string, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if !w.compress {
		return w.writeFile(root, SnapshotFile, data)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()
	return w.writeFile(root, SnapshotFile+".zst", enc.EncodeAll(data, make([]byte, 0, len(data)/4)))
}

func (w *Writer) writeJSON(root, rel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return w.writeFile(root, rel, data)
}

func (w *Writer) writeFile(root, rel string, data []byte) error {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	w.files = append(w.files, filepath.ToSlash(rel))
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSite, compressed or not.
func ReadSnapshot(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// FindSnapshot returns the snapshot file inside an output directory.
func FindSnapshot(dir string) (string, error) {
	for _, name := range []string{SnapshotFile + ".zst", SnapshotFile} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no snapshot in %s", dir)
}
