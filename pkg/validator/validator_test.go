package validator_test

import (
	"testing"

	"github.com/priestd09/sourcegraph/pkg/validator"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	type conf struct {
		Label string `validate:"required,alphanum"`
	}

	t.Run("nil input", func(t *testing.T) {
		assert.Error(t, validator.Validate(nil))
	})

	t.Run("missing required", func(t *testing.T) {
		assert.Error(t, validator.Validate(conf{}))
	})

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, validator.Validate(conf{Label: "extsvc1"}))
	})
}

func TestVar(t *testing.T) {
	assert.NoError(t, validator.Var("extsvcdb", "required,alphanum"))
	assert.Error(t, validator.Var("", "required"))
}
