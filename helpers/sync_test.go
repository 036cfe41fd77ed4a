package helpers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtomicErrorStoreOnce(t *testing.T) {
	t.Parallel()
	var a AtomicError
	_, ok := a.Load()
	assert.False(t, ok)

	first := fmt.Errorf("first")
	prev, found := a.StoreOnce(first)
	assert.Nil(t, prev)
	assert.False(t, found)

	prev, found = a.StoreOnce(fmt.Errorf("second"))
	assert.Equal(t, first, prev)
	assert.True(t, found)

	err, ok := a.Load()
	assert.True(t, ok)
	assert.Equal(t, first, err)
}
