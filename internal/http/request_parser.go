// This file decodes request bodies and validates them with
// go-playground/validator. Amounts arrive as JSON numbers and are kept as
// json.Number so no precision is lost before they become decimals.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"debtpayoff/internal/core"
)

const maxBodyBytes = 1 << 20

var hundred = decimal.NewFromInt(100)

// requestError is a rejected request body. Malformed JSON is a 400, a well
// formed body with invalid fields is a 422.
type requestError struct {
	status  int
	message string
	details []errorDetail
}

func (e *requestError) Error() string {
	return e.message
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Custom validators for amounts carried as json.Number
	v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	v.RegisterValidation("money_positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	v.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative() && d.LessThanOrEqual(hundred)
	})
	v.RegisterValidation("debt_type", func(fl validator.FieldLevel) bool {
		return core.DebtType(fl.Field().String()).IsValid()
	})

	return v
}

// decodeJSON reads a JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &requestError{status: http.StatusBadRequest, message: "request body is empty"}
		case errors.As(err, &maxErr):
			return &requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
		default:
			return &requestError{status: http.StatusBadRequest, message: "malformed JSON: " + err.Error()}
		}
	}

	if err := s.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		details := make([]errorDetail, 0, len(validationErrors))
		for _, fe := range validationErrors {
			details = append(details, errorDetail{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return &requestError{status: http.StatusUnprocessableEntity, message: "request validation failed", details: details}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "decimal":
		return "must be a number"
	case "money":
		return "must be a non-negative amount"
	case "money_positive":
		return "must be a positive amount"
	case "percent":
		return "must be a percentage between 0 and 100"
	case "debt_type":
		return fmt.Sprintf("must be one of %v", core.DebtTypes())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

// amount converts a validated json.Number to an amount rounded to cents
func amount(n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return core.RoundCents(d)
}

// rate converts a validated json.Number to a percentage
func rate(n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
