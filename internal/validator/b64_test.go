package validator

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func base64String(length int) string {
	arr := make([]byte, length)
	for i := range arr {
		arr[i] = 'a'
	}

	return base64.StdEncoding.EncodeToString(arr)
}

func TestOverlaySize(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, ValidateOverlaySize(len(base64String(1<<10)), 1<<10), "max size should work")
	})

	t.Run("ValidSmall", func(t *testing.T) {
		assert.True(t, ValidateOverlaySize(len(base64String(10)), 1<<10), "small size should work")
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.False(t, ValidateOverlaySize(len(base64String((1<<10)+100)), 1<<10), "too big")
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		assert.True(t, ValidateOverlaySize(len(base64String(1<<20)), 0), "default limit should allow 1mb")
	})
}

func TestStripDataURL(t *testing.T) {
	t.Run("Prefixed", func(t *testing.T) {
		assert.Equal(t, "aGVsbG8=", StripDataURL("data:image/png;base64,aGVsbG8="))
	})

	t.Run("Raw", func(t *testing.T) {
		assert.Equal(t, "aGVsbG8=", StripDataURL("aGVsbG8="))
	})

	t.Run("MalformedPrefix", func(t *testing.T) {
		assert.Equal(t, "data:nothing", StripDataURL("data:nothing"))
	})
}
