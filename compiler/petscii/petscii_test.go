package petscii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	b, err := Text.NewEncoder().String("Hello, World!\n")
	require.NoError(t, err)
	assert.Equal(t, "\xc8\x45\x4c\x4c\x4f\x2c\x20\xd7\x4f\x52\x4c\x44\x21\x0d", b)

	s, err := Text.NewDecoder().String(b)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!\n", s)
}

func TestScreen(t *testing.T) {
	b, err := Screen.NewEncoder().Bytes([]byte("@abc[£]↑← 0?AZ"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f, 0x20, 0x30, 0x3f, 0x41, 0x5a}, b)

	s, err := Screen.NewDecoder().Bytes(b)
	require.NoError(t, err)
	assert.Equal(t, "@abc[£]↑← 0?AZ", string(s))
}

func TestUnencodable(t *testing.T) {
	_, err := Text.NewEncoder().String("tab\there")
	assert.Error(t, err)

	_, err = Screen.NewEncoder().String("{")
	assert.Error(t, err)

	_, err = Text.NewDecoder().Bytes([]byte{0x80})
	assert.Error(t, err)
}

func TestLong(t *testing.T) {
	in := strings.Repeat("abc£", 2000)

	b, err := Text.NewEncoder().String(in)
	require.NoError(t, err)
	assert.Len(t, b, 8000)

	s, err := Text.NewDecoder().String(b)
	require.NoError(t, err)
	assert.Equal(t, in, s)
}
