package coco

import (
	"fmt"

	"github.com/kbukum/datasets/pipeline"
	"github.com/kbukum/datasets/validation"
)

// Splits and Years list the accepted values of Options.Split and Options.Year.
var (
	Splits = []string{"train", "val"}
	Years  = []string{"2017", "2014"}
)

// Options selects which part of the dataset a pass reads.
type Options struct {
	// Split is the dataset split ("train" or "val").
	Split string `json:"split" mapstructure:"split" validate:"required,oneof=train val"`
	// Year is the dataset release ("2017" or "2014").
	Year string `json:"year" mapstructure:"year" validate:"required,oneof=2017 2014"`
	// Kinds are the annotation kinds to assemble, in output order. Empty
	// selects the kinds enabled by default.
	Kinds []Kind `json:"kinds" mapstructure:"kinds" validate:"unique"`
	// MaxBuffered bounds every buffering stage of a pass. pipeline.InfiniteBuffer
	// (0) keeps them unbounded, which a full single pass over the dataset needs.
	MaxBuffered int `json:"max_buffered" mapstructure:"max_buffered" validate:"gte=0"`
}

// DefaultOptions returns the default configuration: train 2017 with the
// default kinds and unbounded buffers.
func DefaultOptions() Options {
	return Options{
		Split:       "train",
		Year:        "2017",
		Kinds:       DefaultKinds(),
		MaxBuffered: pipeline.InfiniteBuffer,
	}
}

// ApplyDefaults fills unset fields.
func (o *Options) ApplyDefaults() {
	if o.Split == "" {
		o.Split = "train"
	}
	if o.Year == "" {
		o.Year = "2017"
	}
	if len(o.Kinds) == 0 {
		o.Kinds = DefaultKinds()
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	v := validation.New().Merge("options", validation.Validate(o))
	for i, k := range o.Kinds {
		v.Custom(k.Valid(), fmt.Sprintf("options.kinds[%d]", i), "unknown annotation kind")
	}
	v.Custom(len(o.Kinds) > 0, "options.kinds", "at least one annotation kind must be selected")
	return v.Err()
}

// Config is the configuration-file form of Options plus the dataset locations.
type Config struct {
	Split       string   `yaml:"split" mapstructure:"split"`
	Year        string   `yaml:"year" mapstructure:"year"`
	Kinds       []string `yaml:"kinds" mapstructure:"kinds"`
	MaxBuffered int      `yaml:"max_buffered" mapstructure:"max_buffered"`
	// Images is the image archive (zip) or an unpacked image directory.
	Images string `yaml:"images" mapstructure:"images"`
	// Annotations is the metadata archive (zip) or an unpacked directory.
	Annotations string `yaml:"annotations" mapstructure:"annotations"`
	// Categories is the vocabulary file written by the categories command.
	Categories string `yaml:"categories" mapstructure:"categories"`
	// Verify checks the archives against the published checksums before a pass.
	Verify bool `yaml:"verify" mapstructure:"verify"`
}

// ApplyDefaults applies default values to the dataset configuration.
func (c *Config) ApplyDefaults() {
	if c.Split == "" {
		c.Split = "train"
	}
	if c.Year == "" {
		c.Year = "2017"
	}
	if len(c.Kinds) == 0 {
		c.Kinds = kindNames(DefaultKinds())
	}
}

// Options converts the configuration into validated Options.
func (c *Config) Options() (Options, error) {
	kinds, err := ParseKinds(c.Kinds)
	if err != nil {
		return Options{}, err
	}
	opts := Options{Split: c.Split, Year: c.Year, Kinds: kinds, MaxBuffered: c.MaxBuffered}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate validates the dataset configuration.
func (c *Config) Validate() error {
	_, err := c.Options()
	return err
}
