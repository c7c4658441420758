package testutils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSkipUnlessRecorded(t *testing.T) {
	t.Setenv("UPDATE_TESTS", "")
	dir := t.TempDir()
	t.Chdir(dir)

	var ranWithout bool
	t.Run("without recordings", func(t *testing.T) {
		SkipUnlessRecorded(t, "judge")
		ranWithout = true
	})
	if ranWithout {
		t.Error("test ran without recorded responses")
	}

	if err := os.MkdirAll(filepath.Join(dir, "testdata", "judge"), 0o755); err != nil {
		t.Fatal(err)
	}
	var ranWith bool
	t.Run("with recordings", func(t *testing.T) {
		SkipUnlessRecorded(t, "judge")
		ranWith = true
	})
	if !ranWith && !testing.Short() {
		t.Error("test skipped although responses are recorded")
	}
}
