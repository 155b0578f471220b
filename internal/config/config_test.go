package config

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDefaultLayout(t *testing.T) {
	layout := DefaultLayout()

	assert.Equal(t, layout.CodeStart+layout.CodeSize, layout.DataStart)
	assert.Equal(t, layout.DataStart+layout.DataSize, layout.StackStart)
	assert.True(t, layout.StackStart+layout.StackSize <= layout.MemorySize)
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}
