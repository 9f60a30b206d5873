package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tripnest/catalog/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("sortkey", func(fl validator.FieldLevel) bool {
		_, ok := parseSortKey(fl.Field().String())
		return ok
	})
	return v
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateStruct runs the struct tags of s and turns failures into
// client-facing messages.
func ValidateStruct(s any) []ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		field, param := fe.Field(), fe.Param()
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", field)
		case "gte":
			msg = fmt.Sprintf("%s must be at least %s", field, param)
		case "lte":
			msg = fmt.Sprintf("%s must be at most %s", field, param)
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", field, param)
		case "oneof":
			msg = fmt.Sprintf("%s must be one of [%s]", field, param)
		case "sortkey":
			msg = fmt.Sprintf("%s is not a known sort order", field)
		default:
			msg = fmt.Sprintf("%s is invalid", field)
		}
		out = append(out, ValidationError{Field: field, Message: msg})
	}
	return out
}

// parseSortKey accepts the registered keys and their snake_case spellings.
func parseSortKey(s string) (domain.SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "rating":
		return domain.SortRating, true
	case "pricelow", "price_low", "price_asc":
		return domain.SortPriceLow, true
	case "pricehigh", "price_high", "price_desc":
		return domain.SortPriceHigh, true
	case "newest":
		return domain.SortNewest, true
	case "capacity":
		return domain.SortCapacity, true
	}
	return "", false
}
