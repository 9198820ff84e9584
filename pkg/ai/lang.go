package ai

import (
	"strings"
	"unicode"
)

const (
	LangEN = "en"
	LangZH = "zh"
	LangJA = "ja"
	LangKO = "ko"
)

// NormalizeLang maps a request language ("zh-CN", "ja_JP", "KO") to a
// supported locale, defaulting to English.
func NormalizeLang(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	switch l {
	case LangZH, LangJA, LangKO:
		return l
	default:
		return LangEN
	}
}

// IsCJK reports whether lang is an ideographic locale.
func IsCJK(lang string) bool {
	switch NormalizeLang(lang) {
	case LangZH, LangJA, LangKO:
		return true
	}
	return false
}

// Language guard thresholds. They are tuning constants, not derived values.
const (
	minLatinLetters = 24
	latinToCJKRatio = 2
)

// MostlyLatin reports whether text reads as Latin script rather than CJK:
// at least 24 Latin letters and more than twice as many Latin letters as
// Han, Kana and Hangul characters combined. Addresses and tickers inside
// CJK prose stay below the bar; an English reply does not.
func MostlyLatin(text string) bool {
	latin, cjk := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) && unicode.Is(unicode.Latin, r):
			latin++
		case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
			cjk++
		}
	}
	return latin >= minLatinLetters && latin > latinToCJKRatio*cjk
}
