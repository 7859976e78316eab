package ident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	valid := []string{
		"123e4567-e89b-12d3-a456-426614174000",
		"123E4567-E89B-12D3-A456-426614174000",
		"00000000-0000-0000-0000-000000000000",
	}
	for _, id := range valid {
		require.True(t, Valid(id), id)
	}

	invalid := []string{
		"",
		"1",
		"123e4567e89b12d3a456426614174000",
		"123e4567-e89b-12d3-a456-42661417400",
		"123e4567-e89b-12d3-a456-4266141740000",
		"g23e4567-e89b-12d3-a456-426614174000",
		" 123e4567-e89b-12d3-a456-426614174000",
		"{123e4567-e89b-12d3-a456-426614174000}",
	}
	for _, id := range invalid {
		require.False(t, Valid(id), id)
	}
}

func TestRepair_KeepsValid(t *testing.T) {
	id := "123e4567-e89b-12d3-a456-426614174000"
	out, replaced, err := Repair(id)
	require.NoError(t, err)
	require.False(t, replaced)
	require.Equal(t, id, out)
}

func TestRepair_ReplacesInvalid(t *testing.T) {
	out, replaced, err := Repair("entry-1")
	require.NoError(t, err)
	require.True(t, replaced)
	require.True(t, Valid(out))
	require.Equal(t, out, strings.ToLower(out))

	other, _, err := Repair("entry-1")
	require.NoError(t, err)
	require.NotEqual(t, out, other, "replacements must be random")
}

func TestNew_IsVersion4(t *testing.T) {
	id, err := New()
	require.NoError(t, err)
	require.True(t, Valid(id))
	require.Equal(t, byte('4'), id[14])
}
