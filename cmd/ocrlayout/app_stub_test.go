//go:build !ocr

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/ocrlayout/config"
)

func TestBuildDetector_TesseractNotCompiledIn(t *testing.T) {
	c := config.Default()
	c.Jobs.Workers = 3

	d, closeFn, err := buildDetector(&c)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.NoError(t, closeFn())
}

func TestBuildDetector_InvalidPageSegMode(t *testing.T) {
	c := config.Default()
	c.OCR.PSM = 20

	_, _, err := buildDetector(&c)
	assert.Error(t, err)
}
