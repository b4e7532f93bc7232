package dispatcher

import (
	"reflect"
	"testing"
)

func TestWordInText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		text string
		want bool
	}{
		{"pizza", "I love PIZZA!", true},
		{"pizza", "pizzazz", false},
		{"cafe", "Meet at the Café, then home", true},
		{"Café", "cafe?", true},
		{"hello", "hello;world", true},
		{"world", "hello;world", true},
		{"hello", "hello-world", false},
		{"smile", "smile 😀", true},
		{"good morning", "good morning", false},
		{"", "anything", false},
	}

	for _, tt := range tests {
		if got := WordInText(tt.word, tt.text); got != tt.want {
			t.Fatalf("WordInText(%q, %q) = %v, want %v", tt.word, tt.text, got, tt.want)
		}
	}
}

func TestKeywordCanMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		keyword string
		want    bool
	}{
		{"hello", true},
		{"Café", true},
		{"hello!", false},
		{"a.b", false},
		{"good morning", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := KeywordCanMatch(tt.keyword); got != tt.want {
			t.Fatalf("KeywordCanMatch(%q) = %v, want %v", tt.keyword, got, tt.want)
		}
	}
}

func TestSplitWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want []string
	}{
		{"/bot echo hi", []string{"/bot", "echo", "hi"}},
		{"  /bot   echo  ", []string{"/bot", "echo"}},
		{`/bot say "hello world" 'single quoted'`, []string{"/bot", "say", "hello world", "single quoted"}},
		{`/bot say "she said \"hi\""`, []string{"/bot", "say", `she said "hi"`}},
		{`/bot say it's fine`, []string{"/bot", "say", "it's", "fine"}},
		{`/bot echo it's a nice day`, []string{"/bot", "echo", "it's", "a", "nice", "day"}},
		{`/bot echo don't "stop now"`, []string{"/bot", "echo", "don't", "stop now"}},
		{`/bot say "unterminated quote`, []string{"/bot", "say", "unterminated quote"}},
		{`/bot path C:\temp`, []string{"/bot", "path", `C:\temp`}},
		{`/bot empty ""`, []string{"/bot", "empty", ""}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := SplitWords(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("SplitWords(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
