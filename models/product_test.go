package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	for _, category := range Categories {
		assert.True(t, ValidCategory(category), category)
	}

	assert.False(t, ValidCategory("Groceries"))
	assert.False(t, ValidCategory("electronics")) // enum is case sensitive
	assert.False(t, ValidCategory(""))
}
