package coco

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/errors"
)

func TestNewVocabularyPositional(t *testing.T) {
	v := NewVocabulary("cat", "dog", "bird")
	if v.Len() != 3 {
		t.Fatalf("expected 3 categories, got %d", v.Len())
	}
	idx, err := v.Index(2)
	if err != nil || idx != 2 {
		t.Errorf("Index(2) = %d, %v", idx, err)
	}
	if i, ok := v.IndexOf("dog"); !ok || i != 1 {
		t.Errorf("IndexOf(dog) = %d, %v", i, ok)
	}
	if _, ok := v.IndexOf("cow"); ok {
		t.Error("expected cow to be absent")
	}
}

func TestVocabularySortsByID(t *testing.T) {
	v := NewVocabularyFromCategories([]Category{
		{Name: "dog", ID: 18},
		{Name: "person", ID: 1},
		{Name: "cat", ID: 17},
	})
	if got := strings.Join(v.Names(), ","); got != "person,cat,dog" {
		t.Errorf("expected names sorted by id, got %s", got)
	}
	idx, err := v.Index(18)
	if err != nil || idx != 2 {
		t.Errorf("Index(18) = %d, %v", idx, err)
	}
}

func TestVocabularyIndexUnknown(t *testing.T) {
	v := NewVocabularyFromCategories([]Category{{Name: "person", ID: 1}, {Name: "dog", ID: 18}})
	_, err := v.Index(5)
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestVocabularyFileRoundTrip(t *testing.T) {
	v := NewVocabularyFromCategories([]Category{{Name: "person", ID: 1}, {Name: "traffic light", ID: 10}})
	var buf bytes.Buffer
	if _, err := v.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "person\t1\ntraffic light\t10\n" {
		t.Errorf("unexpected file content %q", buf.String())
	}
	loaded, err := LoadVocabulary(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if idx, err := loaded.Index(10); err != nil || idx != 1 {
		t.Errorf("Index(10) = %d, %v", idx, err)
	}
}

func TestLoadVocabularyNamesOnly(t *testing.T) {
	v, err := LoadVocabulary(strings.NewReader("cat\ndog\n\nbird\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(v.Names(), ","); got != "cat,dog,bird" {
		t.Errorf("unexpected names %s", got)
	}
	if idx, err := v.Index(2); err != nil || idx != 2 {
		t.Errorf("Index(2) = %d, %v", idx, err)
	}
}

func TestLoadVocabularyBadID(t *testing.T) {
	_, err := LoadVocabulary(strings.NewReader("cat\tone\n"))
	if !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("expected INVALID_FORMAT, got %v", err)
	}
}

func TestBuildVocabulary(t *testing.T) {
	doc := `{"info":{},"categories":[{"id":18,"name":"dog","supercategory":"animal"},{"id":1,"name":"person"}],"images":[]}`
	other := `{"categories":[{"id":99,"name":"wrong"}]}`
	meta := archive.FromEntries(
		archive.FromBytes("annotations/instances_train2017.json", []byte(other)),
		archive.FromBytes("annotations/instances_val2017.json", []byte(doc)),
	)

	v, err := BuildVocabulary(context.Background(), meta, Options{Split: "val", Year: "2017"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(v.Names(), ","); got != "person,dog" {
		t.Errorf("unexpected names %s", got)
	}
}

func TestBuildVocabularyMissingDocument(t *testing.T) {
	meta := archive.FromEntries(archive.FromBytes("annotations/captions_val2017.json", []byte(`{}`)))
	_, err := BuildVocabulary(context.Background(), meta, Options{Split: "val", Year: "2017"})
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestLoadVocabularyErrorLineCountsBlanks(t *testing.T) {
	_, err := LoadVocabulary(strings.NewReader("\n\n\ncat\t1\ndog\tx\n"))
	app, ok := errors.AsAppError(err)
	if !ok || app.Code != errors.ErrCodeInvalidFormat {
		t.Fatalf("expected INVALID_FORMAT, got %v", err)
	}
	if field := app.Details["field"]; field != "categories line 5" {
		t.Errorf("field = %v, want categories line 5", field)
	}
}

func TestLoadVocabularyRejectsMalformedFiles(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"mixed formats", "cat\t1\ndog\n"},
		{"bare after tabbed", "cat\t0\n\ndog\n"},
		{"duplicate id", "cat\t1\ndog\t1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := LoadVocabulary(strings.NewReader(tt.input))
			if !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
				t.Fatalf("expected INVALID_FORMAT, got %v (vocabulary %v)", err, v)
			}
		})
	}
}
