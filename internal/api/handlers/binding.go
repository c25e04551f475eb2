package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

// RegisterJSONFieldNames makes binding errors report json field names instead of Go ones.
func RegisterJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindingDetails turns a ShouldBind error into per-field messages.
func bindingDetails(err error) []utils.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []utils.FieldError{{Field: "body", Message: "Request body is not valid JSON"}}
	}

	details := make([]utils.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "max":
			msg = "must be at most " + fe.Param() + " characters"
		case "url":
			msg = "must be a valid URL"
		default:
			msg = "is invalid"
		}
		details = append(details, utils.FieldError{Field: fe.Field(), Message: msg})
	}
	return details
}
