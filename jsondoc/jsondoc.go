// Package jsondoc reads JSON documents as streams of their top-level members.
package jsondoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/pipeline"
)

// Pair is one top-level member of a JSON object document.
type Pair struct {
	Key   string
	Value json.RawMessage
}

// Pairs returns the members of the entry's top-level object in document
// order. The entry is opened on the first pull. Only one member value is
// held at a time by the iterator itself.
func Pairs(entry archive.Entry) pipeline.Iterator[Pair] {
	return &pairIter{entry: entry}
}

type pairIter struct {
	entry archive.Entry
	rc    io.ReadCloser
	dec   *json.Decoder
	done  bool
}

func (it *pairIter) Next(ctx context.Context) (Pair, bool, error) {
	if it.done {
		return Pair{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return Pair{}, false, err
	}
	if it.dec == nil {
		rc, err := it.entry.Open()
		if err != nil {
			return Pair{}, false, err
		}
		it.rc = rc
		it.dec = json.NewDecoder(rc)
		if err := expectDelim(it.dec, '{'); err != nil {
			return Pair{}, false, it.fail(err)
		}
	}
	if !it.dec.More() {
		if err := expectDelim(it.dec, '}'); err != nil {
			return Pair{}, false, it.fail(err)
		}
		it.done = true
		return Pair{}, false, nil
	}

	tok, err := it.dec.Token()
	if err != nil {
		return Pair{}, false, it.fail(err)
	}
	key, ok := tok.(string)
	if !ok {
		return Pair{}, false, it.fail(fmt.Errorf("unexpected token %v", tok))
	}
	var value json.RawMessage
	if err := it.dec.Decode(&value); err != nil {
		return Pair{}, false, it.fail(err)
	}
	return Pair{Key: key, Value: value}, true, nil
}

func (it *pairIter) fail(cause error) error {
	it.done = true
	return errors.InvalidFormat(it.entry.Name, "JSON object document").WithCause(cause)
}

func (it *pairIter) Close() error {
	if it.rc == nil {
		return nil
	}
	err := it.rc.Close()
	it.rc = nil
	return err
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// Objects decodes a JSON array of objects. Numbers are kept as json.Number so
// integer ids survive without float rounding.
func Objects(field string, raw json.RawMessage) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, errors.InvalidFormat(field, "array of objects").WithCause(err)
	}
	return objects, nil
}
