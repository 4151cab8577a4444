package jsonc_test

import (
	"testing"

	"github.com/priestd09/sourcegraph/pkg/jsonc"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		assert.NoError(t, jsonc.Validate([]byte(`{"url": "https://github.com"}`)))
	})

	t.Run("with comments", func(t *testing.T) {
		doc := `{
			// personal access token
			"token": "abc",
			/* the code host url */
			"url": "https://gitlab.example.com"
		}`
		assert.NoError(t, jsonc.Validate([]byte(doc)))
	})

	t.Run("not json at all", func(t *testing.T) {
		assert.Error(t, jsonc.Validate([]byte(`{"url": `)))
	})

	t.Run("empty document", func(t *testing.T) {
		assert.Error(t, jsonc.Validate([]byte(``)))
	})
}

func TestUnmarshal(t *testing.T) {
	var out struct {
		URL string `json:"url"`
	}

	err := jsonc.Unmarshal([]byte(`{"url": "https://github.com"} // default`), &out)
	assert.NoError(t, err)
	assert.Equal(t, "https://github.com", out.URL)
}
