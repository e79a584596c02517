// Package validation validates options and configuration structs.
//
// Struct tag validation uses go-playground/validator; field names in messages
// follow the mapstructure (config key) names. Checks that tags cannot express
// are collected programmatically.
//
// # Struct Tag Validation
//
//	type Options struct {
//	    Split string `mapstructure:"split" validate:"required,oneof=train val"`
//	}
//	err := validation.Validate(opts)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Custom(len(kinds) > 0, "kinds", "at least one kind must be selected")
//	err := v.Err()
package validation
