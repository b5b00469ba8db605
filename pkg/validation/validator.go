package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/daylog-hq/daylog/internal/domain/entity"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the timespent rule for entry amounts.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("pwd", "min=8") // password minimum length
		_ = v.RegisterValidation("timespent", func(fl validator.FieldLevel) bool {
			return entity.ValidTimeSpent(fl.Field().Float())
		})
		_ = v.RegisterValidation("entrydate", func(fl validator.FieldLevel) bool {
			_, err := parseDate(fl.Field().String())
			return err == nil
		})
	}
}

// ToDetails converts validation/binding errors into a map[field]message
// suitable for the API error body.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(entity.DateLayout, s)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "pwd":
		return "must be at least 8 characters"
	case "timespent":
		return "must be 0.5 or 1"
	case "entrydate":
		return "must be a YYYY-MM-DD date"
	default:
		return "is invalid"
	}
}
