package marker

import (
	"fmt"
	"strconv"
	"strings"
)

// NextID returns the next sequential ID for kind: one more than the highest
// numeric suffix among existing IDs with the kind's prefix, zero padded to
// four digits. IDs whose suffix does not parse are ignored.
func NextID(markers []Marker, kind Kind) string {
	prefix := kind.Prefix()
	highest := 0
	for _, m := range markers {
		if n, ok := parseSuffix(m.ID, prefix); ok && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1)
}

// NextIDs allocates n consecutive IDs for kind.
func NextIDs(markers []Marker, kind Kind, n int) []string {
	if n <= 0 {
		return nil
	}
	first := NextID(markers, kind)
	start, _ := parseSuffix(first, kind.Prefix())
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%04d", kind.Prefix(), start+i)
	}
	return ids
}

func parseSuffix(id, prefix string) (int, bool) {
	if prefix == "" || !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
