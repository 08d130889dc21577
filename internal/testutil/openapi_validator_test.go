package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsJSON(t *testing.T) {
	assert.True(t, isJSON("application/json"))
	assert.True(t, isJSON("application/json; charset=utf-8"))
	assert.False(t, isJSON("text/html; charset=utf-8"))
	assert.False(t, isJSON("text/plain"))
	assert.False(t, isJSON(""))
}

func TestLoadOpenAPIValidator(t *testing.T) {
	v, err := LoadOpenAPIValidator("../../api/openapi/openapi.yaml")
	assert.NoError(t, err)
	assert.NotNil(t, v)
}
