package validator

import (
	"encoding/base64"
	"strings"
)

// Default ceiling for a decoded annotation overlay
const DefaultMaxOverlayBytes = 1 << 23

// ensure the data length is less than the maximum base64 length for a given length without decoding the base64
func validateBase64Len(dataLen int, length int) bool {
	return dataLen <= base64.StdEncoding.EncodedLen(length)
}

// ensures an encoded overlay is no larger than `maxBytes` once decoded
func ValidateOverlaySize(dataLen int, maxBytes int) bool {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOverlayBytes
	}
	return validateBase64Len(dataLen, maxBytes)
}

// Strips an optional `data:<mime>;base64,` prefix as produced by canvas exports
func StripDataURL(encoded string) string {
	if !strings.HasPrefix(encoded, "data:") {
		return encoded
	}

	_, payload, found := strings.Cut(encoded, ",")
	if !found {
		return encoded
	}

	return payload
}
