package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFields(t *testing.T) {
	t.Run("nil when complete", func(t *testing.T) {
		assert.NoError(t, MissingFields("rule", map[string]bool{"a": true, "b": true}))
	})

	t.Run("names missing fields in order", func(t *testing.T) {
		err := MissingFields("rule", map[string]bool{"status": false, "raw_text": false, "w_id": true})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "rule missing raw_text, status")
	})
}

func TestSchemaError(t *testing.T) {
	err := SchemaError("group", errors.New("bad number"))
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "group: bad number")

	assert.Same(t, err, SchemaError("groups response", err))
}
