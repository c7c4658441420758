package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	got, err := Split("The heart size is normal. No pleural effusion is seen.")
	require.NoError(t, err)
	assert.Equal(t, []string{"The heart size is normal.", "No pleural effusion is seen."}, got)
}

func TestSplit_Empty(t *testing.T) {
	got, err := Split("   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSplit_SingleSentence(t *testing.T) {
	got, err := Split("Lungs are clear")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lungs are clear"}, got)
}
