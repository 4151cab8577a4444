package jsonc

import (
	"fmt"

	"github.com/muhammadmuzzammil1998/jsonc"
	"github.com/segmentio/encoding/json"
)

// Parse reads a JSON-with-comments document and returns the plain JSON form.
// Human-edited configuration files are allowed to carry // and /* */ comments,
// so every stored config payload must go through here before it is trusted.
func Parse(data []byte) (plain []byte, err error) {
	plain = jsonc.ToJSON(data)
	if !json.Valid(plain) {
		err = fmt.Errorf("invalid jsonc document")
		return
	}

	return plain, nil
}

// Validate returns non-nil error when data is not valid JSON-with-comments.
func Validate(data []byte) error {
	_, err := Parse(data)
	return err
}

// Unmarshal decodes a JSON-with-comments document into out.
func Unmarshal(data []byte, out interface{}) error {
	plain, err := Parse(data)
	if err != nil {
		return err
	}

	return json.Unmarshal(plain, out)
}
