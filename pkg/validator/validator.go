package validator

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/carebridge/carelog-api/internal/model"
)

// RegisterCustom installs the project's custom rules on gin's binding
// validator: care_section for the four submission units, iana_timezone for
// recipient timezones.
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine")
	}

	if err := v.RegisterValidation("care_section", func(fl validator.FieldLevel) bool {
		return model.ValidSection(model.Section(fl.Field().String()))
	}); err != nil {
		return err
	}

	return v.RegisterValidation("iana_timezone", func(fl validator.FieldLevel) bool {
		tz := fl.Field().String()
		if tz == "" {
			return false
		}
		_, err := time.LoadLocation(tz)
		return err == nil
	})
}
