package coco

import (
	"path"
	"regexp"
	"strings"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/jsondoc"
)

// Channels of a metadata document split by ClassifyMeta.
const (
	imagesChannel      = 0
	annotationsChannel = 1
)

// ClassifyMeta routes a top-level member of a metadata document: "images" to
// channel 0, "annotations" to channel 1. Everything else (info, licenses,
// categories) is dropped.
func ClassifyMeta(p jsondoc.Pair) (int, bool) {
	switch p.Key {
	case "images":
		return imagesChannel, true
	case "annotations":
		return annotationsChannel, true
	default:
		return 0, false
	}
}

// metaFilePattern matches metadata document names such as
// "instances_train2017.json".
var metaFilePattern = regexp.MustCompile(
	`^(?P<kind>` + strings.Join(kindNames(AllKinds), "|") + `)_(?P<split>[a-zA-Z]+)(?P<year>\d+)\.json$`,
)

// FileClassifier routes metadata archive entries to one channel per selected
// kind. It is immutable once built.
type FileClassifier struct {
	split    string
	year     string
	channels map[Kind]int
}

// NewFileClassifier builds the classifier for opts. The channel of a kind is
// its position in opts.Kinds.
func NewFileClassifier(opts Options) *FileClassifier {
	channels := make(map[Kind]int, len(opts.Kinds))
	for i, k := range opts.Kinds {
		channels[k] = i
	}
	return &FileClassifier{split: opts.Split, year: opts.Year, channels: channels}
}

// Classify routes an entry name. Only the base name is matched; names that do
// not follow the pattern, belong to another split or year, or name a kind
// that is not selected are dropped.
func (c *FileClassifier) Classify(name string) (int, bool) {
	kind, split, year, ok := parseMetaFileName(name)
	if !ok || split != c.split || year != c.year {
		return 0, false
	}
	ch, selected := c.channels[kind]
	return ch, selected
}

// Entry classifies an archive entry by its name.
func (c *FileClassifier) Entry(e archive.Entry) (int, bool) {
	return c.Classify(e.Name)
}

func parseMetaFileName(name string) (kind Kind, split, year string, ok bool) {
	m := metaFilePattern.FindStringSubmatch(path.Base(name))
	if m == nil {
		return 0, "", "", false
	}
	kind, err := ParseKind(m[metaFilePattern.SubexpIndex("kind")])
	if err != nil {
		return 0, "", "", false
	}
	return kind, m[metaFilePattern.SubexpIndex("split")], m[metaFilePattern.SubexpIndex("year")], true
}

// metaFileName returns the document name of kind for opts.
func metaFileName(kind Kind, opts Options) string {
	return kind.Name() + "_" + opts.Split + opts.Year + ".json"
}
