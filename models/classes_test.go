package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassNames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "LF", input: "person\ncar\ntruck\n", expected: []string{"person", "car", "truck"}},
		{name: "CRLF", input: "person\r\ncar\r\ntruck\r\n", expected: []string{"person", "car", "truck"}},
		{name: "no trailing newline", input: "person\r\ncar", expected: []string{"person", "car"}},
		{name: "labels with spaces", input: "traffic light\nstop sign\n", expected: []string{"traffic light", "stop sign"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseClassNames(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, set.Names())
		})
	}
}

func TestParseClassNames_Empty(t *testing.T) {
	_, err := ParseClassNames(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrNoClasses))
}

func TestClassSet(t *testing.T) {
	set := NewClassSet("cat", "dog", "cat")

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, "dog", set.Name(1))
	assert.Equal(t, "unknown_3", set.Name(3))
	assert.Equal(t, "unknown_-1", set.Name(-1))

	idx, ok := set.Index("cat")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = set.Index("bird")
	assert.False(t, ok)
}

func TestYOLOClasses(t *testing.T) {
	assert.Equal(t, 80, YOLOClasses.Len())
	assert.Equal(t, "person", YOLOClasses.Name(0))
	assert.Equal(t, "toothbrush", YOLOClasses.Name(79))
}

func TestLoadClassNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coco.names")
	require.NoError(t, os.WriteFile(path, []byte("person\r\nbicycle\r\n"), 0o600))

	set, err := LoadClassNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "bicycle"}, set.Names())

	_, err = LoadClassNames(filepath.Join(t.TempDir(), "missing.names"))
	assert.Error(t, err)
}
