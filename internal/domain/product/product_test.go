package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct(1, " Desktop App ", "desktop-app")
	require.NoError(t, err)
	assert.Equal(t, "Desktop App", p.Name())
	assert.Equal(t, "desktop-app", p.Slug())

	for _, slug := range []string{"", "Desktop", "desk_app", "-app", "app-"} {
		_, err := NewProduct(1, "App", slug)
		assert.ErrorIs(t, err, ErrInvalidSlug, slug)
	}

	_, err = NewProduct(0, "App", "app")
	assert.Error(t, err)
}
