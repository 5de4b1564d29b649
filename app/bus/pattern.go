package bus

import "strings"

// MatchPattern reports whether a dot-segmented routing key matches a
// binding pattern. "*" matches exactly one segment, "#" matches zero or
// more segments, anything else matches its segment literally.
func MatchPattern(pattern, routingKey string) bool {
	return matchSegments(strings.Split(pattern, "."), strings.Split(routingKey, "."))
}

func matchSegments(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}

	switch pattern[0] {
	case "#":
		// "#" absorbs zero or more segments.
		for i := 0; i <= len(key); i++ {
			if matchSegments(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(key) > 0 && matchSegments(pattern[1:], key[1:])
	default:
		return len(key) > 0 && pattern[0] == key[0] && matchSegments(pattern[1:], key[1:])
	}
}
