package config

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validatorV10 *validator.Validate
)

// Validate runs go-playground/validator struct-tag validation, the same
// library the teacher uses for its YAML config structs, lazily
// constructed once per process.
func Validate(v any) error {
	validateOnce.Do(func() {
		validatorV10 = validator.New()
	})
	return validatorV10.Struct(v)
}
