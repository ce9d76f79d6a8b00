package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/schema"
	validator "gopkg.in/go-playground/validator.v9"
)

var (
	decoder  = schema.NewDecoder()
	validate = validator.New()
)

func init() {
	decoder.IgnoreUnknownKeys(true)
	decoder.SetAliasTag("name")
}

// Validate validates the passed in struct using our shared validator instance
func Validate(payload any) error {
	return validate.Struct(payload)
}

// DecodeAndValidateForm takes the passed in form and attempts to parse and validate it from the
// URL query parameters as well as any POST parameters of the passed in request
func DecodeAndValidateForm(form any, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}

	if err := decoder.Decode(form, r.Form); err != nil {
		return err
	}

	return validate.Struct(form)
}

// DecodeAndValidateJSON takes the passed in envelope and tries to unmarshal it from the body
// of the passed in request, then validating it
func DecodeAndValidateJSON(envelope any, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 100000))
	defer r.Body.Close()
	if err != nil {
		return fmt.Errorf("unable to read request body: %s", err)
	}

	if err = json.Unmarshal(body, envelope); err != nil {
		return fmt.Errorf("unable to parse request JSON: %s", err)
	}

	return validate.Struct(envelope)
}

// DecodeAndValidate decodes the passed in request into the passed in payload, from a form body
// if that is what the client sent, from JSON otherwise
func DecodeAndValidate(payload any, r *http.Request) error {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/x-www-form-urlencoded") || strings.Contains(contentType, "multipart/form-data") {
		return DecodeAndValidateForm(payload, r)
	}
	return DecodeAndValidateJSON(payload, r)
}
