package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rehablink/physio-api/pkg/timeutil"
)

// RegisterCustomValidations installs the display-format rules on a validator
// instance. Tags: displaydate ("02 Jan, 2006") and clocktime ("3:04 PM").
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("displaydate", validDisplayDate); err != nil {
		return err
	}
	return v.RegisterValidation("clocktime", validClockTime)
}

// RegisterWithGin installs the custom rules on gin's binding validator so
// request structs can use them in binding tags.
func RegisterWithGin() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return RegisterCustomValidations(v)
	}
	return nil
}

func validDisplayDate(fl validator.FieldLevel) bool {
	_, err := timeutil.ParseDisplayDate(fl.Field().String())
	return err == nil
}

func validClockTime(fl validator.FieldLevel) bool {
	_, err := timeutil.ParseClock(fl.Field().String())
	return err == nil
}
