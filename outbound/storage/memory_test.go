package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStorage(t *testing.T) {
	st := NewMemoryStorage()
	ctx := context.Background()

	_, err := st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.NoError(t, st.Set(ctx, "cafeteria:balance", "10000"))

	value, err := st.Get(ctx, "cafeteria:balance")
	assert.NoError(t, err)
	assert.Equal(t, "10000", value)

	assert.NoError(t, st.Remove(ctx, "cafeteria:balance"))

	_, err = st.Get(ctx, "cafeteria:balance")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
