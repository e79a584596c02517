package archive

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/pipeline"
)

// FromEntries creates an entry stream over fixed entries.
func FromEntries(entries ...Entry) *pipeline.Pipeline[Entry] {
	return pipeline.FromSlice(entries)
}

// Zip streams the file entries of the zip archive at path in central
// directory order. The archive is opened on the first pull and closed with
// the iterator; entries must be opened before that.
func Zip(path string) *pipeline.Pipeline[Entry] {
	return pipeline.FromFunc(func(_ context.Context) pipeline.Iterator[Entry] {
		return &zipIter{path: path}
	})
}

type zipIter struct {
	path   string
	reader *zip.ReadCloser
	index  int
}

func (it *zipIter) Next(ctx context.Context) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	if it.reader == nil {
		r, err := zip.OpenReader(it.path)
		if err != nil {
			return Entry{}, false, errors.ArchiveFailure(it.path, err)
		}
		it.reader = r
	}
	for it.index < len(it.reader.File) {
		f := it.reader.File[it.index]
		it.index++
		if f.FileInfo().IsDir() {
			continue
		}
		return NewEntry(f.Name, func() (io.ReadCloser, error) { return f.Open() }), true, nil
	}
	return Entry{}, false, nil
}

func (it *zipIter) Close() error {
	if it.reader == nil {
		return nil
	}
	err := it.reader.Close()
	it.reader = nil
	return err
}

// Dir streams the regular files below root in lexical order. Entry names are
// slash-separated and relative to root.
func Dir(root string) *pipeline.Pipeline[Entry] {
	return pipeline.FromFunc(func(_ context.Context) pipeline.Iterator[Entry] {
		return &dirIter{root: root}
	})
}

type dirIter struct {
	root   string
	names  []string
	index  int
	listed bool
}

func (it *dirIter) Next(ctx context.Context) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	if !it.listed {
		err := fs.WalkDir(os.DirFS(it.root), ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				it.names = append(it.names, name)
			}
			return nil
		})
		if err != nil {
			return Entry{}, false, errors.ArchiveFailure(it.root, err)
		}
		it.listed = true
	}
	if it.index >= len(it.names) {
		return Entry{}, false, nil
	}
	name := it.names[it.index]
	it.index++
	full := filepath.Join(it.root, filepath.FromSlash(name))
	return NewEntry(name, func() (io.ReadCloser, error) { return os.Open(full) }), true, nil
}

func (it *dirIter) Close() error { return nil }

// Open picks Zip for files and Dir for directories.
func Open(path string) (*pipeline.Pipeline[Entry], error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.ArchiveFailure(path, err)
	}
	if info.IsDir() {
		return Dir(path), nil
	}
	return Zip(path), nil
}
