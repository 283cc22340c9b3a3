// Package parser extracts plain text from submission files stored on disk.
// It is deliberately small: text-bearing formats are read as-is and markup
// stripping happens downstream, while binary formats are rejected so garbage
// never reaches the index.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/openpress/ftsearch/pkg/host"
	"github.com/openpress/ftsearch/pkg/log"
)

// ErrUnsupportedFormat is returned for file types with no text extractor.
var ErrUnsupportedFormat = errors.New("parser: unsupported file format")

const chunkSize = 32 * 1024

// textExtensions are the file extensions read as text. HTML and XML are
// included because tag stripping happens during normalization.
var textExtensions = map[string]bool{
	".txt":   true,
	".text":  true,
	".md":    true,
	".csv":   true,
	".htm":   true,
	".html":  true,
	".xhtml": true,
	".xml":   true,
}

// DirParser resolves submission file paths against the host's files
// directory and yields their contents in fixed-size chunks.
type DirParser struct {
	dir    string
	logger *log.Logger
}

func NewDirParser(dir string) *DirParser {
	return &DirParser{
		dir:    dir,
		logger: log.ForService("parser"),
	}
}

func (p *DirParser) Open(ctx context.Context, f *host.SubmissionFile) (host.TextChunks, error) {
	if f.Path == "" {
		return nil, fmt.Errorf("file %d has no stored path", f.ID)
	}

	ext := strings.ToLower(filepath.Ext(f.Path))
	if !textExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	full, err := p.resolve(f.Path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Path, err)
	}

	p.logger.Debugf("reading text from %s", f.Path)
	return &fileChunks{ctx: ctx, src: file}, nil
}

// resolve joins a host-relative path onto the files directory, refusing
// paths that escape it.
func (p *DirParser) resolve(relPath string) (string, error) {
	full := filepath.Join(p.dir, filepath.FromSlash(relPath))
	base := filepath.Clean(p.dir)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes files directory", relPath)
	}
	return full, nil
}

// fileChunks streams a file in roughly chunkSize pieces so large galleys
// never load into memory at once. Chunks end on whitespace whenever the
// buffer contains any, carrying the cut-off tail into the next chunk, so
// consumers that join chunks with a separator never split a word.
type fileChunks struct {
	ctx   context.Context
	src   io.ReadCloser
	carry []byte
	done  bool
}

func (c *fileChunks) Next() (string, bool) {
	if c.done || c.ctx.Err() != nil {
		return "", false
	}

	buf := make([]byte, chunkSize)
	n := copy(buf, c.carry)
	c.carry = nil

	m, err := c.src.Read(buf[n:])
	n += m
	if err != nil {
		// Bytes already read still count, even on a failed read.
		c.done = true
	}
	if n == 0 {
		return "", false
	}
	if !c.done {
		// Cut after the last whitespace so concatenating the chunks still
		// reproduces the file byte for byte.
		if cut := bytes.LastIndexAny(buf[:n], " \t\r\n"); cut >= 0 && cut+1 < n {
			c.carry = append(c.carry, buf[cut+1:n]...)
			n = cut + 1
		}
	}
	return string(buf[:n]), true
}

func (c *fileChunks) Close() error {
	return c.src.Close()
}
