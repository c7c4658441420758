package heuristic

import "strings"

// porterIrregular maps the irregular forms of the NLTK extensions of the
// Porter stemmer to their stems.
var porterIrregular = map[string]string{
	"sky":      "sky",
	"skies":    "sky",
	"dying":    "die",
	"lying":    "lie",
	"tying":    "tie",
	"news":     "news",
	"inning":   "inning",
	"innings":  "inning",
	"outing":   "outing",
	"outings":  "outing",
	"canning":  "canning",
	"cannings": "canning",
	"howe":     "howe",
	"proceed":  "proceed",
	"exceed":   "exceed",
	"succeed":  "succeed",
}

// stem reduces a word with the Porter algorithm in NLTK_EXTENSIONS mode,
// the stemmer rouge-score and nltk's METEOR use. Words with non-ASCII
// letters are returned lowercased but otherwise untouched.
func stem(word string) string {
	w := strings.ToLower(word)
	if s, ok := porterIrregular[w]; ok {
		return s
	}
	if len(w) <= 2 || !isASCII(w) {
		return w
	}
	w = porterStep1a(w)
	w = porterStep1b(w)
	w = applyRules(w, step1cRules)
	w = porterStep2(w)
	w = applyRules(w, step3Rules)
	w = applyRules(w, step4Rules)
	w = porterStep5a(w)
	return applyRules(w, step5bRules)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// consonant reports whether w[i] is a consonant. A 'y' is a consonant at
// the start of a word or after a vowel.
func consonant(w string, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		return i == 0 || !consonant(w, i-1)
	}
	return true
}

func hasVowel(w string) bool {
	for i := range w {
		if !consonant(w, i) {
			return true
		}
	}
	return false
}

// measure counts the vowel-consonant sequences of w.
func measure(w string) int {
	m := 0
	vowelRun := false
	for i := range w {
		if !consonant(w, i) {
			vowelRun = true
			continue
		}
		if vowelRun {
			m++
		}
		vowelRun = false
	}
	return m
}

func doubleConsonant(w string) bool {
	n := len(w)
	return n >= 2 && w[n-1] == w[n-2] && consonant(w, n-1)
}

// endsCVC reports a consonant-vowel-consonant ending whose last letter is
// not w, x or y. Two-letter words ending vowel-consonant also qualify.
func endsCVC(w string) bool {
	n := len(w)
	if n == 2 {
		return !consonant(w, 0) && consonant(w, 1)
	}
	if n < 3 {
		return false
	}
	switch w[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return consonant(w, n-3) && !consonant(w, n-2) && consonant(w, n-1)
}

// suffixRule rewrites suffix to replacement when the remaining stem
// satisfies cond (nil always holds).
type suffixRule struct {
	suffix      string
	replacement string
	cond        func(stem string) bool
}

// applyRules applies the first rule whose suffix matches w. A matching rule
// whose condition fails stops the list.
func applyRules(w string, rules []suffixRule) string {
	for _, r := range rules {
		if !strings.HasSuffix(w, r.suffix) {
			continue
		}
		s := w[:len(w)-len(r.suffix)]
		if r.cond == nil || r.cond(s) {
			return s + r.replacement
		}
		return w
	}
	return w
}

func positiveMeasure(s string) bool { return measure(s) > 0 }

func measureAbove1(s string) bool { return measure(s) > 1 }

var step1cRules = []suffixRule{
	{"y", "i", func(s string) bool { return len(s) > 1 && consonant(s, len(s)-1) }},
}

var step2Rules = []suffixRule{
	{"ational", "ate", positiveMeasure},
	{"tional", "tion", positiveMeasure},
	{"enci", "ence", positiveMeasure},
	{"anci", "ance", positiveMeasure},
	{"izer", "ize", positiveMeasure},
	{"bli", "ble", positiveMeasure},
	{"alli", "al", positiveMeasure},
	{"entli", "ent", positiveMeasure},
	{"eli", "e", positiveMeasure},
	{"ousli", "ous", positiveMeasure},
	{"ization", "ize", positiveMeasure},
	{"ation", "ate", positiveMeasure},
	{"ator", "ate", positiveMeasure},
	{"alism", "al", positiveMeasure},
	{"iveness", "ive", positiveMeasure},
	{"fulness", "ful", positiveMeasure},
	{"ousness", "ous", positiveMeasure},
	{"aliti", "al", positiveMeasure},
	{"iviti", "ive", positiveMeasure},
	{"biliti", "ble", positiveMeasure},
	{"fulli", "ful", positiveMeasure},
	// the measure includes the 'l' of "logi"
	{"logi", "log", func(s string) bool { return positiveMeasure(s + "l") }},
}

var step3Rules = []suffixRule{
	{"icate", "ic", positiveMeasure},
	{"ative", "", positiveMeasure},
	{"alize", "al", positiveMeasure},
	{"iciti", "ic", positiveMeasure},
	{"ical", "ic", positiveMeasure},
	{"ful", "", positiveMeasure},
	{"ness", "", positiveMeasure},
}

var step4Rules = []suffixRule{
	{"al", "", measureAbove1},
	{"ance", "", measureAbove1},
	{"ence", "", measureAbove1},
	{"er", "", measureAbove1},
	{"ic", "", measureAbove1},
	{"able", "", measureAbove1},
	{"ible", "", measureAbove1},
	{"ant", "", measureAbove1},
	{"ement", "", measureAbove1},
	{"ment", "", measureAbove1},
	{"ent", "", measureAbove1},
	{"ion", "", func(s string) bool {
		return measureAbove1(s) && (strings.HasSuffix(s, "s") || strings.HasSuffix(s, "t"))
	}},
	{"ou", "", measureAbove1},
	{"ism", "", measureAbove1},
	{"ate", "", measureAbove1},
	{"iti", "", measureAbove1},
	{"ous", "", measureAbove1},
	{"ive", "", measureAbove1},
	{"ize", "", measureAbove1},
}

var step5bRules = []suffixRule{
	{"ll", "l", func(s string) bool { return measureAbove1(s + "l") }},
}

func porterStep1a(w string) string {
	if len(w) == 4 && strings.HasSuffix(w, "ies") {
		return w[:1] + "ie"
	}
	return applyRules(w, []suffixRule{
		{"sses", "ss", nil},
		{"ies", "i", nil},
		{"ss", "ss", nil},
		{"s", "", nil},
	})
}

func porterStep1b(w string) string {
	switch {
	case strings.HasSuffix(w, "ied"):
		if len(w) == 4 {
			return w[:1] + "ie"
		}
		return w[:len(w)-3] + "i"
	case strings.HasSuffix(w, "eed"):
		if s := w[:len(w)-3]; measure(s) > 0 {
			return s + "ee"
		}
		return w
	}

	var s string
	switch {
	case strings.HasSuffix(w, "ed") && hasVowel(w[:len(w)-2]):
		s = w[:len(w)-2]
	case strings.HasSuffix(w, "ing") && hasVowel(w[:len(w)-3]):
		s = w[:len(w)-3]
	default:
		return w
	}

	for _, r := range [][2]string{{"at", "ate"}, {"bl", "ble"}, {"iz", "ize"}} {
		if strings.HasSuffix(s, r[0]) {
			return s[:len(s)-len(r[0])] + r[1]
		}
	}
	if doubleConsonant(s) {
		switch s[len(s)-1] {
		case 'l', 's', 'z':
			return s
		}
		return s[:len(s)-1]
	}
	if measure(s) == 1 && endsCVC(s) {
		return s + "e"
	}
	return s
}

func porterStep2(w string) string {
	if strings.HasSuffix(w, "alli") && positiveMeasure(w[:len(w)-4]) {
		return porterStep2(w[:len(w)-4] + "al")
	}
	return applyRules(w, step2Rules)
}

func porterStep5a(w string) string {
	if !strings.HasSuffix(w, "e") {
		return w
	}
	s := w[:len(w)-1]
	if m := measure(s); m > 1 || (m == 1 && !endsCVC(s)) {
		return s
	}
	return w
}
