package ids

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGeneratorProducesDistinctUUIDs(t *testing.T) {
	generator := UUIDGenerator{}

	first := generator.NewSessionID()
	second := generator.NewSessionID()

	assert.NotEqual(t, first, second)
	_, err := uuid.Parse(string(first))
	require.NoError(t, err)
}
