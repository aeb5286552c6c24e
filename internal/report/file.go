package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

const (
	// MarkdownFileName is the name of the markdown report inside the
	// report directory.
	MarkdownFileName = "accessibility-evaluation-report.md"

	// JSONFileName is the name of the JSON report inside the report directory.
	JSONFileName = "accessibility-evaluation-report.json"
)

// FileSystemError reports a failure to create the report directory or file.
type FileSystemError struct {
	// Op is the failed operation: "mkdir", "create", "write" or "close".
	Op string

	// Path is the directory or file involved.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// DirName derives the report directory name from a root URL: every
// character outside [A-Za-z0-9] becomes '_' and the result is lowercased.
//
//	DirName("https://Example.com/") == "https___example_com_"
func DirName(rootURL string) string {
	var sb strings.Builder
	sb.Grow(len(rootURL))
	for _, r := range rootURL {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Dir returns the report directory for rootURL under baseDir.
func Dir(baseDir, rootURL string) string {
	return filepath.Join(baseDir, DirName(rootURL))
}

// WriteFile renders report with a writer from newWriter into
// <baseDir>/<DirName(report.RootURL)>/<fileName>, creating the directory if
// needed. An existing file is overwritten. It returns the path written.
//
// Reports are created with 0600 permissions since page markup may contain
// data that should only be readable by the owner.
func WriteFile(baseDir, fileName string, report *model.CrawlReport, newWriter WriterFactory) (string, error) {
	dir := Dir(baseDir, report.RootURL)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", &FileSystemError{Op: "mkdir", Path: dir, Err: err}
	}

	path := filepath.Join(dir, fileName)
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", &FileSystemError{Op: "create", Path: path, Err: err}
	}

	if _, err := newWriter(f).Write(report); err != nil {
		_ = f.Close() //nolint:errcheck // The write error is more relevant.
		return "", &FileSystemError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &FileSystemError{Op: "close", Path: path, Err: err}
	}
	return path, nil
}

// MarkdownFactory is a WriterFactory for MarkdownWriter.
func MarkdownFactory(output io.Writer) Writer {
	return NewMarkdownWriter(output)
}

// JSONFactory returns a WriterFactory for JSONWriter with opts.
func JSONFactory(opts ...JSONWriterOption) WriterFactory {
	return func(output io.Writer) Writer {
		return NewJSONWriter(output, opts...)
	}
}
