package archive

import (
	"bytes"
	"io"
	"path"

	"github.com/kbukum/datasets/errors"
)

// Entry is one named record of a container.
type Entry struct {
	// Name is the slash-separated path of the entry inside its container.
	Name string

	open func() (io.ReadCloser, error)
}

// NewEntry creates an entry whose content is produced by open.
func NewEntry(name string, open func() (io.ReadCloser, error)) Entry {
	return Entry{Name: name, open: open}
}

// FromBytes creates an entry backed by data.
func FromBytes(name string, data []byte) Entry {
	return NewEntry(name, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Base returns the last element of the entry name.
func (e Entry) Base() string {
	return path.Base(e.Name)
}

// Open returns the content of the entry. The caller must close it.
func (e Entry) Open() (io.ReadCloser, error) {
	if e.open == nil {
		return nil, errors.ArchiveFailure(e.Name, io.ErrUnexpectedEOF)
	}
	rc, err := e.open()
	if err != nil {
		return nil, errors.ArchiveFailure(e.Name, err)
	}
	return rc, nil
}

// ReadAll returns the whole content of the entry.
func (e Entry) ReadAll() ([]byte, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.ArchiveFailure(e.Name, err)
	}
	return data, nil
}
