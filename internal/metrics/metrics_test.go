package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dcwbuild/internal/model"
)

// value returns the gauge, counter or histogram-count value of the sample
// in family name whose label set contains label=want.
func value(t *testing.T, m *Metrics, name, label, want string) float64 {
	t.Helper()
	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			match := label == ""
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == want {
					match = true
				}
			}
			if !match {
				continue
			}
			switch {
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("no sample %s{%s=%q}", name, label, want)
	return 0
}

func TestObserveSource(t *testing.T) {
	m := New()
	m.ObserveSource("clans", 200*time.Millisecond, nil)
	m.ObserveSource("members", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, value(t, m, "dcwbuild_source_duration_seconds", "source", "clans"))
	assert.Equal(t, 1.0, value(t, m, "dcwbuild_source_duration_seconds", "source", "members"))
	assert.Equal(t, 1.0, value(t, m, "dcwbuild_source_failures_total", "source", "members"))
}

func TestObserveSnapshotAndBuild(t *testing.T) {
	m := New()
	snap := model.NewSnapshot(time.Now(), 1)
	snap.Clans = make([]model.Clan, 3)
	m.ObserveSnapshot(snap)
	m.ObserveBuild(2*time.Second, nil, time.Unix(1700000000, 0))

	assert.Equal(t, 3.0, value(t, m, "dcwbuild_entities", "kind", "clans"))
	assert.Equal(t, 0.0, value(t, m, "dcwbuild_entities", "kind", "members"))
	assert.Equal(t, 1.0, value(t, m, "dcwbuild_build_success", "", ""))
	assert.Equal(t, 1700000000.0, value(t, m, "dcwbuild_last_build_timestamp_seconds", "", ""))

	m.ObserveBuild(time.Second, errors.New("x"), time.Now())
	assert.Equal(t, 0.0, value(t, m, "dcwbuild_build_success", "", ""))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveSource("clans", time.Second, nil)
	path := filepath.Join(t.TempDir(), "dcwbuild.prom")

	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `dcwbuild_source_duration_seconds_count{source="clans"} 1`))
}
