package v16

import "github.com/go-playground/validator/v10"

// validate activates the struct tags declared on every message above. The
// teacher's own types/types.go carries these tags without ever wiring a
// validator; SPEC_FULL.md's domain stack turns them into real
// PropertyConstraintViolation responses.
var validate = validator.New()
