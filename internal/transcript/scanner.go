// Package transcript extracts and classifies the JSON artifacts an agent
// embedded in a markdown transcript.
package transcript

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// ErrNotFound is returned by Load when the transcript file does not exist.
var ErrNotFound = errors.New("transcript not found")

// fenceSpace is Unicode whitespace: RE2's \s is ASCII-only, so vertical tab,
// the information separators, NEL and the Z categories (NBSP, U+2028, ...)
// are added explicitly.
const fenceSpace = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

// jsonBlockPattern matches a fenced code block, optionally tagged json, whose
// body starts with '{'. The body is non-greedy up to the nearest '}' that is
// followed by a closing fence.
var jsonBlockPattern = regexp.MustCompile("```(?:json)?" + fenceSpace + `*(\{[\s\S]*?\})` + fenceSpace + "*```")

// ExtractJSONBlocks returns the candidate JSON bodies of every fenced block
// in transcript order. Malformed markdown yields fewer (or no) matches, never
// an error.
func ExtractJSONBlocks(text string) []string {
	matches := jsonBlockPattern.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, m[1])
	}
	return blocks
}

// Load reads a transcript file.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to read transcript %s: %w", path, err)
	}
	return string(data), nil
}
