package internal

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz156789"

var customEncoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// EncodeUUIDToBase32 renders id in the lowercase alphabet above.
func EncodeUUIDToBase32(id uuid.UUID) string {
	return customEncoding.EncodeToString(id[:])
}

// GenerateShortcode derives a stable shortcode for a membership from the user id.
func GenerateShortcode(id uuid.UUID, maxLength int) string {
	code := strings.ToUpper(EncodeUUIDToBase32(id))
	if maxLength > 0 && len(code) > maxLength {
		code = code[:maxLength]
	}
	return code
}
