package coco

import (
	"context"
	"os"
	"path"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/observability"
	"github.com/kbukum/datasets/pipeline"
)

// Homepage is the dataset's home page.
const Homepage = "https://cocodataset.org"

// DatasetInfo describes the dataset and its accepted options.
type DatasetInfo struct {
	Name     string   `json:"name"`
	Homepage string   `json:"homepage"`
	Splits   []string `json:"splits"`
	Years    []string `json:"years"`
	Kinds    []string `json:"kinds"`
	Default  []string `json:"default_kinds"`
}

// Info returns the dataset description.
func Info() DatasetInfo {
	return DatasetInfo{
		Name:     Name,
		Homepage: Homepage,
		Splits:   append([]string(nil), Splits...),
		Years:    append([]string(nil), Years...),
		Kinds:    kindNames(AllKinds),
		Default:  kindNames(DefaultKinds()),
	}
}

// Resource is one published archive.
type Resource struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

// FileName returns the archive's file name.
func (r Resource) FileName() string { return path.Base(r.URL) }

// ResourceSet holds the archives a pass over one split and year reads.
type ResourceSet struct {
	Images      Resource `json:"images"`
	Annotations Resource `json:"annotations"`
}

var imageChecksums = map[string]string{
	"train2014": "ede4087e640bddba550e090eae701092534b554b42b05ac33f0300b984b31775",
	"val2014":   "fe9be816052049c34717e077d9e34aa60814a55679f804cd043e3cbee3b9fde0",
	"train2017": "69a8bb58ea5f8f99d24875f21416de2e9ded3178e903f1f7603e283b9e06d929",
	"val2017":   "4f7e2ccb2866ec5041993c9cf2a952bbed69647b115d0f74da7ce8f4bef82f05",
}

var annotationChecksums = map[string]string{
	"2014": "031296bbc80c45a1d1f76bf9a90ead27e94e99ec629208449507a4917a3bf009",
	"2017": "113a836d90195ee1f884e704da6304dfaaecff1f023f49b6ca93c4aaae470268",
}

// Resources returns the published archives for opts. Both splits of a year
// share one annotation archive.
func Resources(opts Options) (ResourceSet, error) {
	images, ok := imageChecksums[opts.Split+opts.Year]
	if !ok {
		return ResourceSet{}, errors.NotFound("resource", opts.Split+opts.Year)
	}
	return ResourceSet{
		Images: Resource{
			URL:    "http://images.cocodataset.org/zips/" + opts.Split + opts.Year + ".zip",
			SHA256: images,
		},
		Annotations: Resource{
			URL:    "http://images.cocodataset.org/annotations/annotations_trainval" + opts.Year + ".zip",
			SHA256: annotationChecksums[opts.Year],
		},
	}, nil
}

// Source locates the two inputs of a dataset on the local file system. Each
// path is a zip archive or an unpacked directory.
type Source struct {
	Images      string
	Annotations string
}

// Open returns the entry streams of the image and metadata inputs.
func (s Source) Open() (images, meta *pipeline.Pipeline[archive.Entry], err error) {
	if images, err = archive.Open(s.Images); err != nil {
		return nil, nil, err
	}
	if meta, err = archive.Open(s.Annotations); err != nil {
		return nil, nil, err
	}
	return images, meta, nil
}

// Verify checks zip inputs against the published checksums of opts.
// Directories are not checked.
func (s Source) Verify(opts Options) error {
	set, err := Resources(opts)
	if err != nil {
		return err
	}
	checks := []struct {
		path string
		res  Resource
	}{
		{s.Images, set.Images},
		{s.Annotations, set.Annotations},
	}
	for _, c := range checks {
		info, err := os.Stat(c.path)
		if err != nil {
			return errors.ArchiveFailure(c.path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := archive.VerifySHA256(c.path, c.res.SHA256); err != nil {
			return err
		}
	}
	return nil
}

// HealthCheckers reports whether each input exists.
func (s Source) HealthCheckers() []observability.HealthChecker {
	return []observability.HealthChecker{
		pathChecker("images", s.Images),
		pathChecker("annotations", s.Annotations),
	}
}

func pathChecker(name, p string) observability.HealthChecker {
	return observability.HealthCheckFunc(func(context.Context) observability.Health {
		h := observability.Health{Name: name, Status: observability.HealthStatusUp, Details: map[string]string{"path": p}}
		if _, err := os.Stat(p); err != nil {
			h.Status = observability.HealthStatusDown
			h.Message = err.Error()
		}
		return h
	})
}
