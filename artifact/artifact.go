// Package artifact renders the concatenated snapshot file.
package artifact

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lexandro/codesnap/atomicfile"
)

const (
	structureHeader = "# Directory Structure"
	contentsHeader  = "# ======= File Contents ======="
	fileHeader      = "# ======= File: %s ======="
)

// ReadFunc returns the content of an included path.
type ReadFunc func(path string) ([]byte, error)

// Builder turns the ordered list of included paths into an artifact.
type Builder interface {
	Build(ctx context.Context, included []string, read ReadFunc) error
}

// FileBuilder writes the snapshot to a single file. The file is replaced
// atomically, so a failed or cancelled build leaves the previous one.
type FileBuilder struct {
	Output string
	Logger *slog.Logger
}

// NewFileBuilder creates a builder that writes to output.
func NewFileBuilder(output string, logger *slog.Logger) *FileBuilder {
	return &FileBuilder{Output: output, Logger: logger}
}

// Covers reports whether the output file exists and holds a section for
// every path in included, in order. A missing or unreadable file covers
// nothing.
func (b *FileBuilder) Covers(included []string) bool {
	f, err := os.Open(b.Output)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.Logger.Warn("cannot read snapshot", "path", b.Output, "error", err)
		}
		return false
	}
	defer f.Close()

	ok, err := Covers(f, included)
	if err != nil {
		b.Logger.Warn("cannot read snapshot", "path", b.Output, "error", err)
		return false
	}
	return ok
}

// Build renders included into memory and then replaces the output file.
func (b *FileBuilder) Build(ctx context.Context, included []string, read ReadFunc) error {
	var buf bytes.Buffer
	if err := Render(ctx, &buf, included, read); err != nil {
		return err
	}
	if err := atomicfile.WriteFile(b.Output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	b.Logger.Debug("snapshot written", "path", b.Output, "files", len(included), "bytes", buf.Len())
	return nil
}

// Covers reports whether the rendered snapshot in r has a file section
// for each path in included, in order.
func Covers(r io.Reader, included []string) (bool, error) {
	if len(included) == 0 {
		return true, nil
	}
	br := bufio.NewReader(r)
	next := 0
	want := fmt.Sprintf(fileHeader, included[next])
	for {
		line, err := br.ReadString('\n')
		if strings.TrimSuffix(line, "\n") == want {
			next++
			if next == len(included) {
				return true, nil
			}
			want = fmt.Sprintf(fileHeader, included[next])
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// Render writes the snapshot text for included to w. Read failures are
// rendered inline and do not fail the build.
func Render(ctx context.Context, w io.Writer, included []string, read ReadFunc) error {
	var buf bytes.Buffer
	buf.WriteString(structureHeader)
	buf.WriteString("\n\n")
	buf.WriteString(Tree(included))
	buf.WriteString("\n\n")
	buf.WriteString(contentsHeader)
	buf.WriteString("\n")

	for _, p := range included {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf.WriteString("\n")
		fmt.Fprintf(&buf, fileHeader, p)
		buf.WriteString("\n\n")

		content, err := read(p)
		if err != nil {
			fmt.Fprintf(&buf, "# ERROR reading %s: %v\n", p, err)
			continue
		}
		buf.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
