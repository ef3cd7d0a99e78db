package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nomagicln/propshrink/internal/proptest"
)

// TestPropertyConfigPersistenceRoundTrip checks that any valid config saved
// in either format loads back with the same values.
func TestPropertyConfigPersistenceRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property test in short mode")
	}

	tmpDir := t.TempDir()

	properties := gopter.NewProperties(proptest.FastTestParameters())

	properties.Property("config persistence preserves all values", prop.ForAll(
		func(trials, sweeps, minSize, width int, toml bool, color string) bool {
			m, err := NewManager(WithConfigDir(t.TempDir()))
			if err != nil {
				t.Logf("Failed to create manager: %v", err)
				return false
			}

			original := Default()
			original.Trials = trials
			original.MaxSweeps = sweeps
			original.MinSize = minSize
			original.MaxSize = minSize + width
			original.Color = color
			original.HistoryPath = tmpDir + "/history.db"

			format := FormatYAML
			if toml {
				format = FormatTOML
			}
			if _, err := m.Save(original, format); err != nil {
				t.Logf("Save failed: %v", err)
				return false
			}

			loaded, err := m.Load()
			if err != nil {
				t.Logf("Load failed: %v", err)
				return false
			}
			return *loaded == *original
		},
		gen.IntRange(1, 10000),
		gen.IntRange(0, 5000),
		gen.IntRange(0, 50),
		gen.IntRange(0, 200),
		gen.Bool(),
		gen.OneConstOf("auto", "always", "never"),
	))

	properties.TestingRun(t)
}
