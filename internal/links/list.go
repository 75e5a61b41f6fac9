// SPDX-License-Identifier: MIT

// Package links reads and writes the video link list file.
package links

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	xglog "github.com/videolinks/statuscheck/internal/log"
)

// ErrInvalidList reports a list file that is not a JSON array of entry objects.
var ErrInvalidList = errors.New("invalid link list")

// Load reads the whole list file at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	entries, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse list %s: %w", path, err)
	}
	return entries, nil
}

// Decode parses a list from r. Exactly one JSON array is accepted.
func Decode(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)

	var entries []Entry
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidList)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidList, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: expected an array", ErrInvalidList)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after array", ErrInvalidList)
	}
	return entries, nil
}

// Encode writes entries as a two-space indented JSON array without a
// trailing newline. HTML characters are written unescaped.
func Encode(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

// Save replaces the list file at path with entries. The write is atomic and
// durable: readers see either the old list or the new one, never a mix.
func Save(ctx context.Context, path string, entries []Entry) error {
	logger := xglog.FromContext(ctx)

	for i, e := range entries {
		if !e.Status.Persistable() {
			return fmt.Errorf("entry %d: status %q cannot be persisted", i, e.Status)
		}
	}

	pendingFile, err := renameio.NewPendingFile(path,
		renameio.WithPermissions(0o644),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return fmt.Errorf("create pending list file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending list file")
		}
	}()

	if err := Encode(pendingFile, entries); err != nil {
		return fmt.Errorf("write list data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace list file: %w", err)
	}

	logger.Debug().
		Str(xglog.FieldEvent, "list.write").
		Str(xglog.FieldPath, path).
		Int("entries", len(entries)).
		Msg("list written")
	return nil
}
