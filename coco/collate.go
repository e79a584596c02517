package coco

import (
	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/pipeline"
)

// Association is one entity as seen by a single kind: its image record and
// the kind's annotation records referencing it.
type Association struct {
	Kind        Kind
	ImageID     int64
	Image       Record
	Annotations []Record
}

func associationImageID(a Association) (int64, error) { return a.ImageID, nil }

// Collated is one entity after all kinds have been merged, before decoding.
type Collated struct {
	ImageID  int64
	FileName string
	// Annotations holds the raw records per kind. Kinds without records for
	// the entity are absent.
	Annotations map[Kind][]Record
}

func collatedFileName(c Collated) (string, error) { return c.FileName, nil }

// Collate merges the per-kind associations of one entity.
func Collate(group pipeline.Grouped[int64, Association]) (Collated, error) {
	if len(group.Items) == 0 {
		return Collated{}, errors.InvalidInput("group", "no associations for entity")
	}
	fileName, err := group.Items[0].Image.String("file_name")
	if err != nil {
		return Collated{}, withImage(err, group.Key)
	}
	c := Collated{
		ImageID:     group.Key,
		FileName:    fileName,
		Annotations: make(map[Kind][]Record, len(group.Items)),
	}
	for _, a := range group.Items {
		if len(a.Annotations) == 0 {
			continue
		}
		c.Annotations[a.Kind] = append(c.Annotations[a.Kind], a.Annotations...)
	}
	return c, nil
}

func withImage(err error, id int64) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithDetail("image_id", id)
	}
	return err
}
