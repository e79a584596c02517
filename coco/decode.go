package coco

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg" // register decoders for ImageConfigDecoder
	_ "image/png"
	"strconv"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/errors"
)

// Instance is a decoded object annotation.
type Instance struct {
	ID      int64      `json:"id"`
	Area    float64    `json:"area"`
	IsCrowd bool       `json:"iscrowd"`
	BBox    [4]float64 `json:"bbox"`
	// Category is the zero-based vocabulary index of the object class.
	Category int `json:"category"`
}

// Keypoint is one (x, y, visibility) triple.
type Keypoint [3]float64

// PersonInstance is a decoded person annotation with body keypoints.
type PersonInstance struct {
	Instance
	Keypoints    []Keypoint `json:"keypoints"`
	NumKeypoints int64      `json:"num_keypoints"`
}

// Decode converts the raw records of kind into their normalized form:
// []Instance, []Record (captions) or []PersonInstance.
func (k Kind) Decode(records []Record, vocab *Vocabulary) (any, error) {
	var (
		out any
		err error
	)
	switch k {
	case Instances:
		out, err = decodeInstances(records, vocab)
	case Captions:
		out, err = decodeCaptions(records, vocab)
	case PersonKeypoints:
		out, err = decodePersonKeypoints(records, vocab)
	default:
		return nil, errors.InvalidInput("kind", "unknown annotation kind "+k.Name())
	}
	if err != nil {
		return nil, withKind(err, k)
	}
	return out, nil
}

func decodeInstances(records []Record, vocab *Vocabulary) (any, error) {
	out := make([]Instance, len(records))
	for i, r := range records {
		inst, err := decodeInstance(r, vocab)
		if err != nil {
			return nil, err
		}
		out[i] = inst
	}
	return out, nil
}

func decodeInstance(r Record, vocab *Vocabulary) (Instance, error) {
	id, err := r.Int("id")
	if err != nil {
		return Instance{}, err
	}
	fail := func(err error) (Instance, error) {
		return Instance{}, withRecord(err, id)
	}
	area, err := r.Float("area")
	if err != nil {
		return fail(err)
	}
	crowd, err := r.Bool("iscrowd")
	if err != nil {
		return fail(err)
	}
	box, err := r.Floats("bbox")
	if err != nil {
		return fail(err)
	}
	if len(box) != 4 {
		return fail(errors.InvalidFormat("bbox", "4 numbers"))
	}
	categoryID, err := r.Int("category_id")
	if err != nil {
		return fail(err)
	}
	if vocab == nil {
		return fail(errors.New(errors.ErrCodeInternal, "no category vocabulary configured"))
	}
	category, err := vocab.Index(categoryID)
	if err != nil {
		return fail(err)
	}
	return Instance{
		ID:       id,
		Area:     area,
		IsCrowd:  crowd,
		BBox:     [4]float64{box[0], box[1], box[2], box[3]},
		Category: category,
	}, nil
}

func decodeCaptions(records []Record, _ *Vocabulary) (any, error) {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Without("image_id")
	}
	return out, nil
}

func decodePersonKeypoints(records []Record, vocab *Vocabulary) (any, error) {
	out := make([]PersonInstance, len(records))
	for i, r := range records {
		inst, err := decodeInstance(r, vocab)
		if err != nil {
			return nil, err
		}
		flat, err := r.Floats("keypoints")
		if err != nil {
			return nil, withRecord(err, inst.ID)
		}
		if len(flat)%3 != 0 {
			return nil, withRecord(errors.InvalidFormat("keypoints", "(x, y, v) triples"), inst.ID)
		}
		n, err := r.Int("num_keypoints")
		if err != nil {
			return nil, withRecord(err, inst.ID)
		}
		points := make([]Keypoint, len(flat)/3)
		for j := range points {
			points[j] = Keypoint{flat[3*j], flat[3*j+1], flat[3*j+2]}
		}
		out[i] = PersonInstance{Instance: inst, Keypoints: points, NumKeypoints: n}
	}
	return out, nil
}

func withKind(err error, k Kind) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithDetail("kind", k.Name())
	}
	return err
}

func withRecord(err error, id int64) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithDetail("record_id", strconv.FormatInt(id, 10))
	}
	return err
}

// ImageDecoder turns an image archive entry into the sample's image value.
type ImageDecoder func(ctx context.Context, entry archive.Entry) (any, error)

// RawImage is the default ImageDecoder: it returns the entry's bytes.
func RawImage(_ context.Context, entry archive.Entry) (any, error) {
	return entry.ReadAll()
}

// ImageInfo describes an image without holding its pixels.
type ImageInfo struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int    `json:"size"`
}

// ImageConfigDecoder reads the format and dimensions of a JPEG or PNG entry.
func ImageConfigDecoder(_ context.Context, entry archive.Entry) (any, error) {
	data, err := entry.ReadAll()
	if err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.InvalidFormat(entry.Name, "JPEG or PNG image").WithCause(err)
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height, Size: len(data)}, nil
}
