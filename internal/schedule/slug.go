package schedule

import (
	"regexp"
	"strings"
)

var nonAlphanumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the exercise slug from its title. The slug joins the
// exercise catalog with the weights document, so it must never change for
// an existing title.
func Slugify(title string) string {
	slug := nonAlphanumRegex.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
