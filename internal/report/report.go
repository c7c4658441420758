// Package report writes the flat key: value score report.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/datar-psa/medeval/internal/aggregate"
)

// Format writes one "key: value" line per entry in mapping order.
// Values use the shortest decimal representation that round-trips.
func Format(w io.Writer, m aggregate.Mapping) error {
	bw := bufio.NewWriter(w)
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if _, err := fmt.Fprintf(bw, "%s: %s\n", k, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write replaces the report at path. Parent directories are created and the
// report is written to a temporary file first, so path never holds a
// partial report.
func Write(path string, m aggregate.Mapping) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Format(tmp, m); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
