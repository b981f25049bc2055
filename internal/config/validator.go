// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `loader.go` calls `validateStruct` immediately after it unmarshals the
// merged Koanf tree.  Any tag mismatch or validation error aborts startup,
// so the binary never runs with partial or malformed configuration.
//
// Besides the field tags, one struct-level rule ties sections together:
// the selected source kind must have what it needs (a file path for
// `file`, a DSN for `mysql`).
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(sourceRules, Config{})
	return val
}

// sourceRules enforces per-kind requirements.
func sourceRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	switch c.Source.Kind {
	case SourceFile:
		if c.Source.File == "" {
			sl.ReportError(c.Source.File, "Source.File", "File", "required_for_file", "")
		}
	case SourceMySQL:
		if c.Database.DSN == "" {
			sl.ReportError(c.Database.DSN, "Database.DSN", "DSN", "required_for_mysql", "")
		}
	}
}

//
// public API
//

// validateStruct returns the validation errors, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
