package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oralvis/oralvis-api/internal/hash"
)

func TestSum(t *testing.T) {
	assert.Equal(t,
		"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		hash.Sum([]byte("hello world")))
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		hash.Sum(nil))
}
