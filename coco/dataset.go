package coco

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/jsondoc"
	"github.com/kbukum/datasets/logger"
	"github.com/kbukum/datasets/observability"
	"github.com/kbukum/datasets/pipeline"
)

// Name is the dataset name used in logs, metrics and spans.
const Name = "coco"

// PassReport summarizes one finished pass.
type PassReport struct {
	RunID    string
	Samples  int
	Stages   []pipeline.Stats
	Duration time.Duration
	// Err is the error that ended the pass, nil for exhaustion or Close.
	Err error
}

// Stage returns the counters of the named stage.
func (r PassReport) Stage(name string) (pipeline.Stats, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return pipeline.Stats{}, false
}

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithImageDecoder sets the decoder applied to every image entry. The
// default, RawImage, yields the entry's bytes.
func WithImageDecoder(dec ImageDecoder) DatasetOption {
	return func(d *Dataset) {
		if dec != nil {
			d.decodeImage = dec
		}
	}
}

// WithLogger sets the logger. Defaults to logger.Get("coco").
func WithLogger(l *logger.Logger) DatasetOption {
	return func(d *Dataset) { d.log = l }
}

// WithMetrics records pass metrics into m.
func WithMetrics(m *observability.PipelineMetrics) DatasetOption {
	return func(d *Dataset) { d.metrics = m }
}

// WithPassObserver calls fn once at the end of every pass.
func WithPassObserver(fn func(PassReport)) DatasetOption {
	return func(d *Dataset) { d.observe = fn }
}

// Dataset assembles samples from an image archive and a metadata archive.
// It holds only immutable configuration; every pass builds its own stages.
type Dataset struct {
	opts        Options
	vocab       *Vocabulary
	decodeImage ImageDecoder
	log         *logger.Logger
	metrics     *observability.PipelineMetrics
	observe     func(PassReport)
}

// New creates a dataset for opts. The vocabulary is required by the kinds
// carrying a category (instances, person_keypoints).
func New(opts Options, vocab *Vocabulary, options ...DatasetOption) (*Dataset, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, k := range opts.Kinds {
		if vocab == nil && k != Captions {
			return nil, errors.InvalidInput("vocabulary", fmt.Sprintf("required by kind %s", k))
		}
	}
	d := &Dataset{
		opts:        opts,
		vocab:       vocab,
		decodeImage: RawImage,
		log:         logger.Get(Name),
	}
	for _, o := range options {
		o(d)
	}
	return d, nil
}

// Options returns the dataset options with defaults applied.
func (d *Dataset) Options() Options { return d.opts }

// Vocabulary returns the category vocabulary, possibly nil.
func (d *Dataset) Vocabulary() *Vocabulary { return d.vocab }

// Samples returns the lazy stream of samples assembled from images (the
// image archive entries) and meta (the metadata archive entries). Every
// iterator created from it is an independent pass over both inputs with its
// own buffers.
func (d *Dataset) Samples(images, meta *pipeline.Pipeline[archive.Entry]) *pipeline.Pipeline[Sample] {
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[Sample] {
		return d.newPass().run(ctx, images, meta)
	})
}

// pass is the per-pass state: stage counters and observability context.
type pass struct {
	d       *Dataset
	pc      *observability.PassContext
	log     *logger.Logger
	stats   []*pipeline.Stats
	samples int
}

func (d *Dataset) newPass() *pass {
	runID := uuid.NewString()
	return &pass{
		d:  d,
		pc: observability.NewPassContext(Name, runID, d.metrics),
		log: d.log.WithFields(logger.Fields(
			logger.FieldSplit, d.opts.Split,
			"year", d.opts.Year,
		)),
	}
}

// stage returns the options of a named buffering stage of this pass.
func (p *pass) stage(name string) []pipeline.Option {
	s := &pipeline.Stats{}
	p.stats = append(p.stats, s)
	return []pipeline.Option{
		pipeline.WithName(name),
		pipeline.WithStats(s),
		pipeline.WithMaxBuffered(p.d.opts.MaxBuffered),
	}
}

func (p *pass) run(ctx context.Context, images, meta *pipeline.Pipeline[archive.Entry]) pipeline.Iterator[Sample] {
	ctx, span := p.pc.StartSpan(ctx)
	ctx = logger.ContextWith(ctx, logger.FieldRunID, p.pc.RunID)
	p.log = p.log.WithContext(ctx)
	p.log.Debug("pass started", logger.Fields(logger.FieldOperation, "samples"))

	out := pipeline.Tap(p.build(images, meta), func(context.Context, Sample) error {
		p.samples++
		return nil
	})
	out = pipeline.Finally(out, func(ctx context.Context, err error) {
		status := observability.StatusOK
		if err != nil {
			status = observability.StatusError
		}
		report := p.report(err)
		p.pc.End(ctx, span, status, p.samples, report.Stages, err)
		p.logReport(report)
		if p.d.observe != nil {
			p.d.observe(report)
		}
	})
	return out.Iter(ctx)
}

// build wires the stages of one pass:
//
//	meta -> Demux(file) -> per kind: Pairs -> Demux(member) -> Group(image_id) -> Join(images by id)
//	     -> Concat -> Group(entity) -> Collate -> Join(image entries by file name) -> decode
func (p *pass) build(images, meta *pipeline.Pipeline[archive.Entry]) *pipeline.Pipeline[Sample] {
	kinds := p.d.opts.Kinds
	classifier := NewFileClassifier(p.d.opts)
	docs := pipeline.Demux(meta, len(kinds), classifier.Entry, p.stage("files")...)

	perKind := make([]*pipeline.Pipeline[Association], len(kinds))
	for i, kind := range kinds {
		perKind[i] = p.associate(kind, docs[i])
	}

	entities := pipeline.Group(pipeline.Concat(perKind...), associationImageID, p.stage("entities")...)
	collated := pipeline.Map(entities, func(_ context.Context, g pipeline.Grouped[int64, Association]) (Collated, error) {
		return Collate(g)
	})
	withImages := pipeline.Join(collated, images, collatedFileName, entryBase, p.stage("images")...)
	return pipeline.Map(withImages, p.decode)
}

// associate turns the metadata documents of one kind into (annotations,
// image record) associations keyed by image id.
func (p *pass) associate(kind Kind, docs *pipeline.Pipeline[archive.Entry]) *pipeline.Pipeline[Association] {
	name := kind.Name()
	members := pipeline.FlatMap(docs, func(_ context.Context, e archive.Entry) (pipeline.Iterator[jsondoc.Pair], error) {
		p.log.Debug("reading metadata document", logger.Fields(logger.FieldKind, name, logger.FieldEntry, e.Name))
		return jsondoc.Pairs(e), nil
	})
	split := pipeline.Demux(members, 2, ClassifyMeta, p.stage(name+".members")...)
	imageRecords := pipeline.Unbatch(pipeline.Map(split[imagesChannel], memberRecords))
	annotations := pipeline.Unbatch(pipeline.Map(split[annotationsChannel], memberRecords))

	byImage := pipeline.Group(annotations, func(r Record) (int64, error) {
		id, err := r.Int("image_id")
		if err != nil {
			return 0, withKind(err, kind)
		}
		return id, nil
	}, p.stage(name+".annotations")...)

	joined := pipeline.Join(byImage, imageRecords, groupKey, func(r Record) (int64, error) {
		id, err := r.Int("id")
		if err != nil {
			return 0, withKind(err, kind)
		}
		return id, nil
	}, p.stage(name+".join")...)

	return pipeline.Map(joined, func(_ context.Context, pair pipeline.Pair[pipeline.Grouped[int64, Record], Record]) (Association, error) {
		return Association{
			Kind:        kind,
			ImageID:     pair.Left.Key,
			Image:       pair.Right,
			Annotations: pair.Left.Items,
		}, nil
	})
}

func (p *pass) decode(ctx context.Context, pair pipeline.Pair[Collated, archive.Entry]) (Sample, error) {
	c := pair.Left
	s := Sample{Path: pair.Right.Name, Annotations: make(map[Kind]any, len(c.Annotations))}
	for _, kind := range p.d.opts.Kinds {
		records, ok := c.Annotations[kind]
		if !ok {
			continue
		}
		v, err := kind.Decode(records, p.d.vocab)
		if err != nil {
			return Sample{}, withImage(err, c.ImageID)
		}
		s.Annotations[kind] = v
	}
	img, err := p.d.decodeImage(ctx, pair.Right)
	if err != nil {
		return Sample{}, fmt.Errorf("decoding image %s: %w", pair.Right.Name, err)
	}
	s.Image = img
	return s, nil
}

func (p *pass) report(err error) PassReport {
	stages := make([]pipeline.Stats, len(p.stats))
	for i, s := range p.stats {
		stages[i] = *s
	}
	return PassReport{
		RunID:    p.pc.RunID,
		Samples:  p.samples,
		Stages:   stages,
		Duration: p.pc.Duration(),
		Err:      err,
	}
}

func (p *pass) logReport(r PassReport) {
	for _, s := range r.Stages {
		fields := logger.StageFields(s.Stage, s.In, s.Out, s.Dropped, s.HighWater)
		if s.Duplicates > 0 {
			fields["duplicates"] = s.Duplicates
		}
		p.log.Debug("stage finished", fields)
	}
	fields := logger.DurationFields("pass", r.Duration)
	fields[logger.FieldSamples] = r.Samples
	if r.Err != nil {
		p.log.Error("pass failed", logger.MergeWithError(fields, r.Err))
		return
	}
	p.log.Info("pass finished", fields)
}

func memberRecords(_ context.Context, p jsondoc.Pair) ([]Record, error) {
	objects, err := jsondoc.Objects(p.Key, p.Value)
	if err != nil {
		return nil, err
	}
	return toRecords(objects), nil
}

func groupKey(g pipeline.Grouped[int64, Record]) (int64, error) { return g.Key, nil }

func entryBase(e archive.Entry) (string, error) { return e.Base(), nil }
