package middleware

import "strings"

const bearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization header value. It reports false
// when the header is empty, uses another scheme (the prefix is case-sensitive) or has
// nothing after the prefix. Only the first space-separated segment after the scheme is
// returned; anything after it is ignored.
func ParseBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	segments := strings.Fields(header[len(bearerPrefix):])
	if len(segments) == 0 {
		return "", false
	}

	return segments[0], true
}
