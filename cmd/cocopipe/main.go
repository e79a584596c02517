// Command cocopipe assembles COCO samples from an image archive and an
// annotation archive.
//
//	cocopipe dump [flags]        write one pass as NDJSON to stdout
//	cocopipe categories [flags]  write the category vocabulary
//	cocopipe serve [flags]       serve passes over HTTP
//	cocopipe version             print build information
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/coco"
	"github.com/kbukum/datasets/config"
	apperrors "github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/logger"
	"github.com/kbukum/datasets/observability"
	"github.com/kbukum/datasets/pipeline"
	"github.com/kbukum/datasets/resilience"
	"github.com/kbukum/datasets/server"
	"github.com/kbukum/datasets/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: cocopipe <command> [flags]

commands:
  dump        write one pass as NDJSON to stdout
  categories  write the category vocabulary
  serve       serve passes over HTTP
  version     print build information

run "cocopipe <command> -h" for the flags of a command`)
}

// imageDecoders are the values of the -image flag.
var imageDecoders = map[string]coco.ImageDecoder{
	"info": coco.ImageConfigDecoder,
	"raw":  coco.RawImage,
	"none": func(context.Context, archive.Entry) (any, error) { return nil, nil },
}

// options are the command-line flags shared by the commands. Flags override
// the configuration file.
type options struct {
	configFile  string
	split       string
	year        string
	kinds       string
	images      string
	annotations string
	categories  string
	verify      bool
	maxBuffered int

	image string
	limit int
	out   string
	port  int
}

func (o *options) register(fs *flag.FlagSet, cmd string) {
	fs.StringVar(&o.configFile, "config", "", "configuration file (default: the first of cmd/cocopipe/config.yml, config/cocopipe.yml, config.yml)")
	fs.StringVar(&o.split, "split", "", "dataset split: train or val")
	fs.StringVar(&o.year, "year", "", "dataset year: 2017 or 2014")
	fs.StringVar(&o.annotations, "annotations", "", "annotation archive (zip) or directory")
	if cmd == "categories" {
		fs.StringVar(&o.out, "out", "", "write the vocabulary to this file instead of stdout")
		return
	}
	fs.StringVar(&o.kinds, "kinds", "", "comma-separated annotation kinds (instances,captions,person_keypoints)")
	fs.StringVar(&o.images, "images", "", "image archive (zip) or directory")
	fs.StringVar(&o.categories, "categories", "", "vocabulary file written by the categories command")
	fs.BoolVar(&o.verify, "verify", false, "check the archives against the published checksums")
	fs.IntVar(&o.maxBuffered, "max-buffered", -1, "bound on every stage buffer, 0 for unbounded")
	fs.StringVar(&o.image, "image", "info", "image output: info, raw or none")
	switch cmd {
	case "dump":
		fs.IntVar(&o.limit, "limit", 0, "stop after n samples, 0 for all")
	case "serve":
		fs.IntVar(&o.port, "port", 0, "listen port (overrides server.port)")
	}
}

// apply copies the flags that were set onto cfg.
func (o *options) apply(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "split":
			cfg.Dataset.Split = o.split
		case "year":
			cfg.Dataset.Year = o.year
		case "kinds":
			cfg.Dataset.Kinds = strings.Split(o.kinds, ",")
		case "images":
			cfg.Dataset.Images = o.images
		case "annotations":
			cfg.Dataset.Annotations = o.annotations
		case "categories":
			cfg.Dataset.Categories = o.categories
		case "verify":
			cfg.Dataset.Verify = o.verify
		case "max-buffered":
			cfg.Dataset.MaxBuffered = o.maxBuffered
		case "port":
			cfg.Server.Port = o.port
		}
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "version":
		fmt.Fprintln(stdout, version.GetFullVersion())
		return exitOK
	case "dump", "categories", "serve":
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return exitUsage
	}

	o := options{image: "info"}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	o.register(fs, cmd)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if _, ok := imageDecoders[o.image]; !ok {
		fmt.Fprintf(stderr, "invalid -image %q: want info, raw or none\n", o.image)
		return exitUsage
	}

	cfg, err := loadConfig(fs, &o)
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitUsage
	}

	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "startup: %v\n", err)
		return exitError
	}
	defer a.shutdown()

	switch cmd {
	case "dump":
		err = a.dump(ctx, o.image, o.limit)
	case "categories":
		err = a.writeCategories(ctx, o.out)
	case "serve":
		err = a.serve(ctx, o.image)
	}
	if err != nil {
		a.log.Error("command failed", errorFields(cmd, err))
		fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return exitError
	}
	return exitOK
}

func loadConfig(fs *flag.FlagSet, o *options) (*Config, error) {
	var loaderOpts []config.LoaderOption
	if o.configFile != "" {
		if _, err := os.Stat(o.configFile); err != nil {
			return nil, err
		}
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.configFile))
	}

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, loaderOpts...); err != nil {
		return nil, err
	}
	o.apply(fs, cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func errorFields(cmd string, err error) map[string]interface{} {
	fields := logger.ErrorFields(cmd, err)
	if appErr, ok := apperrors.AsAppError(err); ok {
		fields["code"] = string(appErr.Code)
		for k, v := range appErr.Details {
			fields[k] = v
		}
	}
	return fields
}

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg     *Config
	log     *logger.Logger
	stdout  io.Writer
	metrics *observability.PipelineMetrics
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *Config, stdout io.Writer) (*app, error) {
	logger.Init(cfg.Logging, cfg.Name)
	logger.RegisterComponents(cfg.Logging, "coco", "server", "config")
	a := &app{cfg: cfg, log: logger.Get(serviceName), stdout: stdout}
	a.log.Debug("starting", version.GetVersionInfo().Fields())

	if cfg.Telemetry.Metrics {
		mp, err := observability.InitMeter(ctx, cfg.meterConfig())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mp.Shutdown)
	}
	if cfg.Telemetry.Tracing {
		tp, err := observability.InitTracer(ctx, cfg.tracerConfig())
		if err != nil {
			a.shutdown()
			return nil, err
		}
		a.closers = append(a.closers, tp.Shutdown)
	}

	metrics, err := observability.NewPipelineMetrics(observability.Meter(serviceName))
	if err != nil {
		a.shutdown()
		return nil, err
	}
	a.metrics = metrics
	return a, nil
}

// shutdown flushes the telemetry exporters.
func (a *app) shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.Background()); err != nil {
			a.log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}
	a.closers = nil
}

// dataset verifies the inputs if asked to and assembles the dataset.
func (a *app) dataset(ctx context.Context, image string) (*coco.Dataset, error) {
	opts, err := a.cfg.Dataset.Options()
	if err != nil {
		return nil, err
	}
	src := a.cfg.source()
	if src.Images == "" {
		return nil, apperrors.InvalidInput("dataset.images", "an image archive or directory is required")
	}
	if a.cfg.Dataset.Verify {
		if err := resilience.RetryFunc(ctx, a.retry("verify"), func() error { return src.Verify(opts) }); err != nil {
			return nil, err
		}
		a.log.Info("inputs verified", logger.Fields("images", src.Images, "annotations", src.Annotations))
	}

	vocab, err := a.vocabulary(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	return coco.New(opts, vocab,
		coco.WithLogger(logger.Get("coco")),
		coco.WithMetrics(a.metrics),
		coco.WithImageDecoder(imageDecoders[image]),
	)
}

// vocabulary loads the categories file if one is configured and builds the
// vocabulary from the annotation archive otherwise. Captions alone need none.
func (a *app) vocabulary(ctx context.Context, src coco.Source, opts coco.Options) (*coco.Vocabulary, error) {
	if path := a.cfg.Dataset.Categories; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.ArchiveFailure(path, err)
		}
		defer f.Close()
		return coco.LoadVocabulary(f)
	}

	needed := false
	for _, k := range opts.Kinds {
		needed = needed || k != coco.Captions
	}
	if !needed {
		return nil, nil
	}
	return a.buildVocabulary(ctx, src, opts)
}

func (a *app) buildVocabulary(ctx context.Context, src coco.Source, opts coco.Options) (*coco.Vocabulary, error) {
	meta, err := openAnnotations(src)
	if err != nil {
		return nil, err
	}
	vocab, err := resilience.Retry(ctx, a.retry("categories"), func() (*coco.Vocabulary, error) {
		return coco.BuildVocabulary(ctx, meta, opts)
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug("vocabulary built", logger.Fields("categories", vocab.Len()))
	return vocab, nil
}

// retry returns the configured retry policy, logging each retry of op.
func (a *app) retry(op string) resilience.RetryConfig {
	cfg := a.cfg.Retry
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		a.log.Warn("retrying", logger.MergeWithError(logger.Fields(
			logger.FieldOperation, op, "attempt", attempt, "backoff", backoff.String()), err))
	}
	return cfg
}

func (a *app) dump(ctx context.Context, image string, limit int) error {
	d, err := a.dataset(ctx, image)
	if err != nil {
		return err
	}
	images, meta, err := a.cfg.source().Open()
	if err != nil {
		return err
	}

	it := d.Samples(images, meta).Iter(ctx)
	defer it.Close()

	enc := json.NewEncoder(a.stdout)
	for n := 0; limit == 0 || n < limit; n++ {
		s, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) writeCategories(ctx context.Context, out string) error {
	opts, err := a.cfg.Dataset.Options()
	if err != nil {
		return err
	}
	vocab, err := a.buildVocabulary(ctx, a.cfg.source(), opts)
	if err != nil {
		return err
	}

	w := a.stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if _, err := vocab.WriteTo(w); err != nil {
		return err
	}
	a.log.Info("categories written", logger.Fields("categories", vocab.Len(), "out", out))
	return nil
}

func (a *app) serve(ctx context.Context, image string) error {
	d, err := a.dataset(ctx, image)
	if err != nil {
		return err
	}
	src := a.cfg.source()

	srv := server.New(a.cfg.Server, logger.Get("server"))
	srv.ApplyMiddleware()
	srv.Mount(server.NewHandlers(a.cfg.Name, d, src,
		server.WithHealthCheckers(src.HealthCheckers()...),
		server.WithMaxLimit(a.cfg.Server.MaxLimit),
		server.WithMaxPasses(a.cfg.Server.MaxPasses, time.Duration(a.cfg.Server.PassWait)*time.Second),
		server.WithHandlerLogger(logger.Get("server")),
	))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return srv.Stop(context.Background())
}

// openAnnotations opens only the annotation input, so the categories command
// works without images.
func openAnnotations(src coco.Source) (*pipeline.Pipeline[archive.Entry], error) {
	if src.Annotations == "" {
		return nil, apperrors.InvalidInput("dataset.annotations", "an annotation archive or directory is required")
	}
	return archive.Open(src.Annotations)
}
