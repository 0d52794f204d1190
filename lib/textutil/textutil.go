package textutil

import (
	"regexp"
	"strings"
)

var separatorRegex = regexp.MustCompile(`[\s\-]+`)

// NormalizeIdent lowercases an identifier given by a user and joins its words
// with underscores, ex. " Dirt-Oval " -> "dirt_oval".
func NormalizeIdent(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = separatorRegex.ReplaceAllString(name, "_")
	return name
}
