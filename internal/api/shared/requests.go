package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is a single shared instance; the validator caches struct metadata
// per instance.
var validate = validator.New()

// DecodeJSON decodes the request body into v. Malformed JSON surfaces as the
// decoder's error so handlers can reject the body as a bad request.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest checks v against its `validate` struct tags.
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}
