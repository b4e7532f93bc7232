package dispatcher

import (
	"strings"
	"unicode"
)

// SplitWords tokenizes a command line the way a shell would for simple input:
// whitespace separates words, and a single or double quote at the start of a
// word groups text up to the matching quote. A quote inside a word is kept
// literally, so apostrophes survive. A backslash inside double quotes escapes
// a quote or backslash. Grouping quotes are removed from the result. An
// unterminated quote does not fail; it extends to the end of the line.
func SplitWords(line string) []string {
	var (
		words   []string
		current strings.Builder
		inWord  bool
		quote   rune
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			if quote == '"' && r == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\') {
				i++
				r = runes[i]
			}
			current.WriteRune(r)
		case (r == '"' || r == '\'') && !inWord:
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if inWord {
		words = append(words, current.String())
	}

	return words
}
