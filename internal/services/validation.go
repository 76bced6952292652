package services

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/form"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct validates in and turns failures into field errors. messages
// is keyed by "field.tag" or "field"; unmatched failures get a generic message.
func checkStruct(in any, messages map[string]string) form.FieldErrors {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return form.FieldErrors{{Field: "form", Message: err.Error()}}
	}

	var out form.FieldErrors
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg, ok = messages[field]
		}
		if !ok {
			msg = "Enter a valid " + humanise(field)
		}
		out.Add(field, msg)
	}
	return out
}

// checkDateOrder adds an error on endField when end is before start
func checkDateOrder(errs *form.FieldErrors, start, end, endField, message string) {
	if start == "" || end == "" || errs.Get(endField) != "" {
		return
	}
	s, err := dates.ParseISO(start)
	if err != nil {
		return
	}
	e, err := dates.ParseISO(end)
	if err != nil {
		return
	}
	if dates.DaysBetween(s, e) < 0 {
		errs.Add(endField, message)
	}
}

// validationFromAPI turns a 400 with invalid params into a validation error
func validationFromAPI(err error, input form.Answers) *form.ValidationError {
	apiErr, ok := apiclient.IsInvalidParams(err)
	if !ok {
		return nil
	}
	verr := &form.ValidationError{UserInput: input}
	for _, p := range apiErr.InvalidParams {
		field := p.PropertyField()
		verr.Errors.Add(field, invalidParamMessage(field, p.ErrorType))
	}
	return verr
}

func invalidParamMessage(field, errorType string) string {
	name := humanise(field)
	switch errorType {
	case "empty":
		return "You must enter the " + name
	case "invalid", "isInvalid":
		return "The " + name + " is invalid"
	case "beforeStartDate", "shouldBeAfterStartDate":
		return "The " + name + " must be after the start date"
	case "inFuture", "mustNotBeInFuture":
		return "The " + name + " must not be in the future"
	case "inPast", "mustBeInFuture":
		return "The " + name + " must be in the future"
	case "conflict", "overlapping":
		return "The " + name + " conflicts with an existing record"
	}
	return "The " + name + " is not valid"
}

// humanise turns "expectedArrivalDate" into "expected arrival date"
func humanise(field string) string {
	field = field[strings.LastIndex(field, ".")+1:]
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
