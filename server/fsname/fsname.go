// Package fsname turns user ids into file names.
package fsname

import (
	"fmt"
	"strings"
)

// Encode maps an id onto [A-Za-z0-9_-] without collisions: letters, digits
// and '-' are kept, every other byte (including '_') becomes "_xx" in hex.
// UUIDs come out unchanged. The empty id encodes to "_".
func Encode(id string) string {
	if id == "" {
		return "_"
	}
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}
