package txref

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParseRoundtrip(t *testing.T) {
	tests := []struct {
		name    string
		userUID string
	}{
		{name: "обычный uid", userUID: "user-123"},
		{name: "uid с разделителями", userUID: "a-b-c-d"},
		{name: "uuid как uid", userUID: "0b9f7d3e-2f0a-4c4e-9a1d-6f2b8c1d9e0f"},
		{name: "unicode uid", userUID: "пользователь42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := New(tt.userUID)
			got, err := Parse(ref)
			require.NoError(t, err)
			assert.Equal(t, tt.userUID, got)
		})
	}
}

func TestNewIsUnique(t *testing.T) {
	a := New("user-1")
	b := New("user-1")
	assert.NotEqual(t, a, b)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{name: "пустая строка", ref: ""},
		{name: "нет разделителей", ref: "abcdef"},
		{name: "мало полей", ref: "abcd-123"},
		{name: "не hex в первом поле", ref: "zzzz-123-abc"},
		{name: "пустое первое поле", ref: "-123-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.ref)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), "malformed"))
		})
	}
}
