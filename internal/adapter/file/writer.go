// Package file emits feature collections as GeoJSON documents to a stream or
// a file on disk.
package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
)

// Writer serializes each collection it receives as one GeoJSON document.
// It implements pipeline.Emitter.
type Writer struct {
	out    io.Writer
	path   string
	logger *slog.Logger
}

// NewStreamWriter writes every collection to out followed by a newline.
func NewStreamWriter(out io.Writer, logger *slog.Logger) *Writer {
	return &Writer{out: out, logger: logger}
}

// NewPathWriter replaces the file at path with each collection. The file is
// written to a temporary sibling first and renamed so readers never observe a
// partial document.
func NewPathWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Emit writes fc. An empty collection is written like any other.
func (w *Writer) Emit(ctx context.Context, fc *geojson.FeatureCollection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("serialize feature collection: %w", err)
	}
	data = append(data, '\n')

	if w.path == "" {
		if _, err := w.out.Write(data); err != nil {
			return fmt.Errorf("write feature collection: %w", err)
		}
		return nil
	}

	if err := replaceFile(w.path, data); err != nil {
		return err
	}
	w.logger.Debug("feature collection written", "path", w.path, "bytes", len(data))
	return nil
}

func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
