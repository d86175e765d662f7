package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UseJSONNames makes v report fields by their json tag so messages line up
// with the request body keys
func UseJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// FromBinding converts struct validation failures into a ValidationError.
// It returns nil when err is not a validator error.
func FromBinding(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := New()
	for _, fe := range verrs {
		out.Add(fe.Field(), bindingMessage(fe))
	}
	return out
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "email":
		return MsgEmail
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "gt":
		return "Invalid pk - object does not exist."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

// FromTypeError converts a JSON value of the wrong type into a field error.
// Unsigned integer fields hold primary keys. It returns nil when err is not
// a type mismatch on a named field.
func FromTypeError(err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil
	}

	kind, literal, _ := strings.Cut(typeErr.Value, " ")
	var msg string
	switch t := typeErr.Type; {
	case t.Kind() == reflect.Slice && kind != "array":
		msg = fmt.Sprintf("Expected a list of items but got type %q.", valueType(kind, literal))
	case isPK(t) && kind == "number" && !strings.ContainsAny(literal, ".eE"):
		// negative or out of range ids name nothing
		msg = fmt.Sprintf("Invalid pk %q - object does not exist.", literal)
	case isPK(t) || (t.Kind() == reflect.Slice && isPK(t.Elem())):
		msg = fmt.Sprintf("Incorrect type. Expected pk value, received %s.", valueType(kind, literal))
	case t.Kind() == reflect.String:
		msg = "Not a valid string."
	case t.Kind() == reflect.Bool:
		msg = "Must be a valid boolean."
	default:
		msg = fmt.Sprintf("Incorrect type. Expected %s value, received %s.", t, valueType(kind, literal))
	}
	return Field(typeErr.Field, msg)
}

func isPK(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// valueType names a JSON value the way the API reports it to clients
func valueType(kind, literal string) string {
	switch kind {
	case "string":
		return "str"
	case "array":
		return "list"
	case "object":
		return "dict"
	case "number":
		if strings.ContainsAny(literal, ".eE") {
			return "float"
		}
		return "int"
	}
	return kind
}
