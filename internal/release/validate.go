package release

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingTitle       = errors.New("missing title")
	ErrMissingReleaseDate = errors.New("missing release date")
	ErrMissingID          = errors.New("missing id")
	ErrInvalidField       = errors.New("invalid field")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// fieldErrors maps a failing struct field to the sentinel callers match on.
// Identity, title and date are checked first so a record missing several of
// them reports the same error every time.
var fieldErrors = []struct {
	field string
	err   error
}{
	{"ID", ErrMissingID},
	{"Title", ErrMissingTitle},
	{"ReleaseDate", ErrMissingReleaseDate},
}

// Validate reports whether the record may reach the store.
func (r Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	failed := make(map[string]validator.FieldError, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = fe
	}
	for _, fe := range fieldErrors {
		if _, ok := failed[fe.field]; ok {
			return fe.err
		}
	}
	fe := verrs[0]
	return fmt.Errorf("%w: %s failed %s", ErrInvalidField, strings.ToLower(fe.StructField()), fe.Tag())
}
