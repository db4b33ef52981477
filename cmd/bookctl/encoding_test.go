package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEncodingSamples(t *testing.T) {
	cmd := verifyEncodingCmd()
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.NoError(t, cmd.RunE(cmd, []string{"ünïcödé", "line\nbreak"}))
}
