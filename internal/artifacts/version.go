package artifacts

import (
	"fmt"
	"os"
	"regexp"
)

var stableTagPattern = regexp.MustCompile(`(?i)stable tag:[ \t]*([0-9][.0-9]*)`)

// ExtractVersion returns the first "Stable tag:" value declared in a readme.
func ExtractVersion(readme string) (string, bool) {
	match := stableTagPattern.FindStringSubmatch(readme)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ReadVersion reads the readme at path and extracts its stable tag.
func ReadVersion(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read readme: %w", err)
	}
	version, ok := ExtractVersion(string(data))
	return version, ok, nil
}
