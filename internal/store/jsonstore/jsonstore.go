// Package jsonstore persists pages as a single JSON document, an array of
// page objects.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"threadscrape/internal/scrape"

	"github.com/titanous/json5"
)

// Write writes pages to path as an indented JSON array, replacing the file
// atomically.
func Write[T any](path string, pages []scrape.Page[T]) error {
	if pages == nil {
		pages = []scrape.Page[T]{}
	}
	encoded, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(append(encoded, '\n'))
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read parses a document written by Write (or edited by hand, comments and
// trailing commas are accepted) into generic maps.
func Read(path string) ([]map[string]any, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pages []map[string]any
	err = json5.Unmarshal(contents, &pages)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return pages, nil
}

// Decode parses a document written by Write back into typed pages.
func Decode[T any](path string) ([]scrape.Page[T], error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.DisallowUnknownFields()

	var pages []scrape.Page[T]
	err = decoder.Decode(&pages)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pages, nil
}

// FileSink rewrites the document at Path with every page received so far,
// so that an interrupted run keeps the pages it finished. Pages already in
// the document are kept, new ones are appended after them.
type FileSink[T any] struct {
	Path string

	mutex  sync.Mutex
	loaded bool
	pages  []scrape.Page[T]
}

func NewFileSink[T any](path string) *FileSink[T] {
	return &FileSink[T]{Path: path}
}

func (s *FileSink[T]) WritePage(_ context.Context, page scrape.Page[T]) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.loaded {
		existing, err := Decode[T](s.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("keep existing pages: %w", err)
		}
		s.pages = append(existing, s.pages...)
		s.loaded = true
	}
	s.pages = append(s.pages, page)
	return Write(s.Path, s.pages)
}

// Pages returns the pages written so far.
func (s *FileSink[T]) Pages() []scrape.Page[T] {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]scrape.Page[T], len(s.pages))
	copy(out, s.pages)
	return out
}
