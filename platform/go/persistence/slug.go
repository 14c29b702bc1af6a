package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// maxSlugLength keeps tenant slugs usable as a single DNS label, since the
// tenant hint may arrive as a subdomain.
const maxSlugLength = 63

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NormalizeSlug lowercases and trims input and checks it is a valid tenant slug.
func NormalizeSlug(input string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(input))
	switch {
	case slug == "":
		return "", errors.New("slug is required")
	case len(slug) > maxSlugLength:
		return "", fmt.Errorf("slug %q is longer than %d characters", input, maxSlugLength)
	case !slugPattern.MatchString(slug):
		return "", fmt.Errorf("invalid slug %q: use lowercase letters, digits and single hyphens", input)
	}
	return slug, nil
}
