package coco

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/jsondoc"
	"github.com/kbukum/datasets/pipeline"
)

// Category is one entry of the category vocabulary.
type Category struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Vocabulary is the ordered list of category names. The position of a name is
// the category index assigned to annotations; categories are ordered by their
// raw dataset id, so indices are dense regardless of gaps between raw ids.
type Vocabulary struct {
	categories []Category
}

// NewVocabulary creates a vocabulary from names already in id order. Raw ids
// are taken to be the positions.
func NewVocabulary(names ...string) *Vocabulary {
	categories := make([]Category, len(names))
	for i, name := range names {
		categories[i] = Category{Name: name, ID: int64(i)}
	}
	return &Vocabulary{categories: categories}
}

// NewVocabularyFromCategories creates a vocabulary from (name, id) pairs in
// any order; they are sorted by id.
func NewVocabularyFromCategories(categories []Category) *Vocabulary {
	sorted := make([]Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Vocabulary{categories: sorted}
}

// Len returns the number of categories.
func (v *Vocabulary) Len() int { return len(v.categories) }

// Names returns the category names in index order.
func (v *Vocabulary) Names() []string {
	names := make([]string, len(v.categories))
	for i, c := range v.categories {
		names[i] = c.Name
	}
	return names
}

// Categories returns a copy of the categories in index order.
func (v *Vocabulary) Categories() []Category {
	out := make([]Category, len(v.categories))
	copy(out, v.categories)
	return out
}

// IndexOf returns the index of name.
func (v *Vocabulary) IndexOf(name string) (int, bool) {
	for i, c := range v.categories {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Index resolves a raw category id to its index.
func (v *Vocabulary) Index(categoryID int64) (int, error) {
	i := sort.Search(len(v.categories), func(i int) bool { return v.categories[i].ID >= categoryID })
	if i >= len(v.categories) || v.categories[i].ID != categoryID {
		return -1, errors.NotFound("category", strconv.FormatInt(categoryID, 10))
	}
	return i, nil
}

// WriteTo writes one "name<TAB>id" line per category in index order.
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range v.categories {
		n, err := fmt.Fprintf(w, "%s\t%d\n", c.Name, c.ID)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LoadVocabulary reads a vocabulary file. Lines are all "name<TAB>id" or all
// just "name"; a file of bare names takes positions as raw ids. Blank lines
// are ignored. Mixed formats and repeated ids are INVALID_FORMAT.
func LoadVocabulary(r io.Reader) (*Vocabulary, error) {
	var (
		categories []Category
		tabbed     bool
		seen       = make(map[int64]int)
	)
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		where := fmt.Sprintf("categories line %d", line)

		name, rawID, hasID := strings.Cut(text, "\t")
		if len(categories) == 0 {
			tabbed = hasID
		} else if hasID != tabbed {
			return nil, errors.InvalidFormat(where, "one format for every line, name or name<TAB>id")
		}
		c := Category{Name: text, ID: int64(len(categories))}
		if hasID {
			id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
			if err != nil {
				return nil, errors.InvalidFormat(where, "name<TAB>id").WithCause(err)
			}
			c = Category{Name: name, ID: id}
		}
		if prev, dup := seen[c.ID]; dup {
			return nil, errors.InvalidFormat(where, fmt.Sprintf("id %d unique (already on line %d)", c.ID, prev))
		}
		seen[c.ID] = line
		categories = append(categories, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ArchiveFailure("categories", err)
	}
	return NewVocabularyFromCategories(categories), nil
}

// BuildVocabulary reads the categories of the canonical instances document of
// opts from the metadata archive. It is a one-shot step run before any pass.
func BuildVocabulary(ctx context.Context, meta *pipeline.Pipeline[archive.Entry], opts Options) (*Vocabulary, error) {
	want := metaFileName(Instances, opts)
	docs := pipeline.Filter(meta, func(e archive.Entry) bool { return e.Base() == want })
	members := pipeline.FlatMap(docs, func(_ context.Context, e archive.Entry) (pipeline.Iterator[jsondoc.Pair], error) {
		return jsondoc.Pairs(e), nil
	})
	found, err := pipeline.Take(ctx, pipeline.Filter(members, func(p jsondoc.Pair) bool { return p.Key == "categories" }), 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.NotFound("categories", want)
	}

	objects, err := jsondoc.Objects("categories", found[0].Value)
	if err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(objects))
	for _, rec := range toRecords(objects) {
		name, err := rec.String("name")
		if err != nil {
			return nil, err
		}
		id, err := rec.Int("id")
		if err != nil {
			return nil, err
		}
		categories = append(categories, Category{Name: name, ID: id})
	}
	return NewVocabularyFromCategories(categories), nil
}
