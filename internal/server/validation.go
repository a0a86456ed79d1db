package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

const maxBodyBytes = 1 << 20

// todoSchemaJSON describes the create and update bodies. Field presence is
// decided by the handlers; the schema only checks types and shape. Create
// treats a null title or description as absent, update does not accept null.
func todoSchemaJSON(nullable bool) string {
	text := `"string"`
	if nullable {
		text = `["string", "null"]`
	}
	return fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"title":       {"type": %s, "maxLength": %d},
		"description": {"type": %s},
		"completed":   {"type": "boolean"}
	},
	"additionalProperties": false
}`, text, domain.MaxTitleLength, text)
}

var errEmptyBody = errors.New("empty request body")

func compileTodoSchema(nullable bool) *jsonschema.Schema {
	name := "todo-update.json"
	if nullable {
		name = "todo-create.json"
	}
	return jsonschema.MustCompileString(name, todoSchemaJSON(nullable))
}

// requestError is a client error carrying the status and message to send.
type requestError struct {
	status int
	msg    string
	err    error
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.err }

// decodeJSON reads a single JSON object from the body, checks it against
// schema and decodes it into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &requestError{http.StatusRequestEntityTooLarge, "Request body must not be larger than 1MB", err}
		}
		return &requestError{http.StatusBadRequest, "Unable to read request body", err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &requestError{http.StatusBadRequest, "Request body must not be empty", errEmptyBody}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return describeDecodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &requestError{http.StatusBadRequest, "Request body must only contain a single JSON object", err}
	}

	if err := schema.Validate(doc); err != nil {
		return describeSchemaError(err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return &requestError{http.StatusBadRequest, "Invalid request body", err}
	}
	return nil
}

func describeDecodeError(err error) *requestError {
	var syntaxError *json.SyntaxError
	switch {
	case errors.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		return &requestError{http.StatusBadRequest, msg, err}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &requestError{http.StatusBadRequest, "Request body contains badly-formed JSON", err}
	default:
		return &requestError{http.StatusBadRequest, "Invalid request body", err}
	}
}

// describeSchemaError reports the first leaf violation, which names the
// offending field.
func describeSchemaError(err error) *requestError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &requestError{http.StatusBadRequest, "Invalid request body", err}
	}

	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	msg := leaf.Message
	if field := strings.TrimPrefix(leaf.InstanceLocation, "/"); field != "" {
		msg = fmt.Sprintf("invalid value for %q: %s", field, leaf.Message)
	}
	return &requestError{http.StatusBadRequest, "Invalid request body: " + msg, err}
}
