package coco

import (
	"bytes"
	"encoding/json"
)

// Sample is one fully decoded entity. It is not modified after it has been
// yielded.
type Sample struct {
	// Path is the name of the image entry inside the image archive.
	Path string
	// Image is the output of the configured ImageDecoder.
	Image any
	// Annotations holds the decoded annotations of every kind present for
	// the entity.
	Annotations map[Kind]any
}

// Has reports whether the sample carries annotations of kind.
func (s Sample) Has(kind Kind) bool {
	_, ok := s.Annotations[kind]
	return ok
}

// Instances returns the decoded instances, or nil.
func (s Sample) Instances() []Instance {
	v, _ := s.Annotations[Instances].([]Instance)
	return v
}

// Captions returns the caption records, or nil.
func (s Sample) Captions() []Record {
	v, _ := s.Annotations[Captions].([]Record)
	return v
}

// PersonKeypoints returns the decoded person instances, or nil.
func (s Sample) PersonKeypoints() []PersonInstance {
	v, _ := s.Annotations[PersonKeypoints].([]PersonInstance)
	return v
}

// MarshalJSON writes the sample as one object: one key per present kind in
// canonical kind order, then "path" and "image". The output of equal samples
// is byte-identical.
func (s Sample) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(v)
		return nil
	}
	for _, kind := range AllKinds {
		if v, ok := s.Annotations[kind]; ok {
			if err := write(kind.Name(), v); err != nil {
				return nil, err
			}
		}
	}
	if err := write("path", s.Path); err != nil {
		return nil, err
	}
	if err := write("image", s.Image); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
