// Package services implements the gateway's use cases on top of the
// application ports. Services validate commands, drive domain transitions,
// and hand asynchronous work to the job dispatcher.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

var validate = validator.New()

// validationMessage turns the first validator failure into the
// human-readable description carried in the error body.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		if f.Tag() == "required" {
			return fmt.Sprintf("%s is required", strings.ToLower(f.Field()))
		}
		return fmt.Sprintf("%s is invalid", strings.ToLower(f.Field()))
	}
	return err.Error()
}
