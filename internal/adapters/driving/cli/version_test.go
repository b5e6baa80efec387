package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	oldVersion := version
	version = "1.2.3"
	defer func() { version = oldVersion }()

	output, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bookqa version 1.2.3\n", output)
}

func TestVersionCommandDefault(t *testing.T) {
	output, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "bookqa version dev")
}
