package dispatcher

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var delimiterReplacer = strings.NewReplacer(
	".", " ",
	",", " ",
	":", " ",
	";", " ",
	"!", " ",
	"?", " ",
)

// WordInText reports whether word appears in text as a whole word. Both sides
// are folded to lower-case ASCII (accents are decomposed and dropped) and the
// text's sentence punctuation counts as whitespace.
func WordInText(word string, text string) bool {
	word = foldASCII(word)
	text = delimiterReplacer.Replace(foldASCII(text))

	return slices.Contains(strings.Fields(text), word)
}

// KeywordCanMatch reports whether WordInText can ever be true for keyword.
// Keywords with several words or with sentence punctuation never match, since
// the text side splits on both.
func KeywordCanMatch(keyword string) bool {
	folded := foldASCII(keyword)
	words := strings.Fields(delimiterReplacer.Replace(folded))

	return len(words) == 1 && words[0] == folded
}

// foldASCII applies NFKD and removes every non-ASCII rune, then lower-cases.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))

	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}

	return strings.ToLower(folded)
}
