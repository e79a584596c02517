package coco

import (
	"fmt"
	"strings"

	"github.com/kbukum/datasets/errors"
)

// Kind is one family of annotations. Each kind has its own metadata document
// (<name>_<split><year>.json), its own record schema and its own decoder.
type Kind int

const (
	// Instances are object bounding boxes with a category.
	Instances Kind = iota
	// Captions are free-text image descriptions.
	Captions
	// PersonKeypoints are person instances with body keypoints.
	PersonKeypoints
)

// AllKinds lists every kind in canonical order.
var AllKinds = []Kind{Instances, Captions, PersonKeypoints}

// Name returns the kind's document prefix and sample key.
func (k Kind) Name() string {
	switch k {
	case Instances:
		return "instances"
	case Captions:
		return "captions"
	case PersonKeypoints:
		return "person_keypoints"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string { return k.Name() }

// DefaultEnabled reports whether the kind is selected when no kinds are configured.
func (k Kind) DefaultEnabled() bool {
	return k == Instances
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= Instances && k <= PersonKeypoints
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.InvalidInput("kind", fmt.Sprintf("unknown kind %d", int(k)))
	}
	return []byte(k.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a kind by name.
func ParseKind(name string) (Kind, error) {
	for _, k := range AllKinds {
		if strings.EqualFold(name, k.Name()) {
			return k, nil
		}
	}
	return 0, errors.InvalidInput("kinds", fmt.Sprintf("unknown annotation kind %q", name))
}

// ParseKinds resolves a list of kind names.
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// DefaultKinds returns the kinds enabled by default.
func DefaultKinds() []Kind {
	var kinds []Kind
	for _, k := range AllKinds {
		if k.DefaultEnabled() {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func kindNames(kinds []Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.Name()
	}
	return names
}
