package timeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// generation stamps such as "_20240917_142233" left behind by audio tools
var stampSuffix = regexp.MustCompile(`\s\d{8}.*$`)

// Label turns a song identifier into the name shown in the tracklist.
func Label(name string) string {
	label := strings.ReplaceAll(name, "_", " ")
	label = stampSuffix.ReplaceAllString(label, "")
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return strings.TrimSpace(name)
	}
	return cases.Title(language.English, cases.NoLower).String(label)
}
