package publish

import (
	"fmt"
	"os"
	"strings"
)

// ParseHashtags normalises hashtag values. Each value may hold several tags
// separated by spaces or commas. Tags gain a leading '#', duplicates are
// dropped case-insensitively and the first spelling wins.
func ParseHashtags(values []string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, value := range values {
		fields := strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
		for _, field := range fields {
			word := strings.TrimLeft(field, "#")
			if word == "" {
				continue
			}
			key := strings.ToLower(word)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, "#"+word)
		}
	}
	return tags
}

// LoadHashtags reads a hashtags file. Every non-empty line may carry one or
// more tags; lines starting with "//" are ignored.
func LoadHashtags(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hashtags file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	values := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		values = append(values, line)
	}
	return ParseHashtags(values), nil
}
