package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/core/domain"
)

func TestInternedString(t *testing.T) {
	is1 := domain.NewInternedString("python313")
	is2 := domain.NewInternedString("python313")

	assert.Equal(t, is1.Value(), is2.Value(), "identical strings share a handle")
	assert.Equal(t, "python313", is1.String())
	assert.False(t, is1.IsZero())
}

func TestInternedString_Zero(t *testing.T) {
	var zero domain.InternedString

	assert.True(t, zero.IsZero())
	assert.Empty(t, zero.String())

	data, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.JSONEq(t, `""`, string(data))
}

func TestInternedStringJSON(t *testing.T) {
	type record struct {
		Name domain.InternedString `json:"name"`
	}

	data, err := json.Marshal(record{Name: domain.NewInternedString("uv")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"uv"}`, string(data))

	var decoded record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "uv", decoded.Name.String())
}
