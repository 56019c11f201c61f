package assets

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// NewKey returns a fresh storage key of the form {owner}/{uuid}-{name}.
// An empty owner yields just {uuid}-{name}.
func NewKey(owner, name string) string {
	leaf := uuid.NewString()
	if n := SanitizeName(name); n != "" {
		leaf += "-" + n
	}
	if o := SanitizeName(owner); o != "" {
		return o + "/" + leaf
	}
	return leaf
}

// SanitizeName reduces a user-supplied file name to characters safe in a
// storage key: letters, digits, '.', '-' and '_'. Anything else becomes '_'.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '.', ch == '-', ch == '_':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
