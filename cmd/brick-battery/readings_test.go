package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeepLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	content := "one\ntwo\nthree\nfour\nfive\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	assert.NoError(t, keepLastLines(path, 2))
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "four\nfive\n", string(data))
}

func TestKeepLastLinesShortFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	content := "one\ntwo\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	assert.NoError(t, keepLastLines(path, 10))
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestKeepLastLinesMissingFile(t *testing.T) {
	assert.NoError(t, keepLastLines(filepath.Join(t.TempDir(), "missing.csv"), 10))
}

func TestLogReadingAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")

	assert.NoError(t, logReading(path, 7500000, 120000))
	assert.NoError(t, logReading(path, 7400000, 130000))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), ", 7500000, 120000\n")
	assert.Contains(t, string(data), ", 7400000, 130000\n")
}
