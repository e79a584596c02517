// Package config loads command configuration with Viper.
//
// Values come from a YAML file (config.yml, searched in the command's
// directory and the working directory), an optional .env file loaded with
// godotenv, and prefixed environment variables, in increasing precedence.
//
// # Usage
//
//	var cfg Config
//	if err := config.LoadConfig("cocopipe", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// COCOPIPE_DATASET_SPLIT=val overrides dataset.split.
package config
