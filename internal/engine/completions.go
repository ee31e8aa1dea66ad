package engine

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Completion is one candidate replacement.
type Completion struct {
	Code string
}

// Completions is the result of a completion query. Candidates replace the
// byte range [StartOffset, EndOffset) of the queried code.
type Completions struct {
	Items       []Completion
	StartOffset int
	EndOffset   int
}

// WordBefore returns the start offset of the identifier that ends at pos
// and the identifier text. pos is clamped to the code length.
func WordBefore(code string, pos int) (int, string) {
	if pos > len(code) {
		pos = len(code)
	}
	if pos < 0 {
		pos = 0
	}
	start := pos
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(code[:start])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		start -= size
	}
	return start, code[start:pos]
}

// RankCandidates completes the word ending at pos from candidates. Prefix
// matches come first; fuzzy matches follow ordered by edit distance.
func RankCandidates(code string, pos int, candidates []string) Completions {
	start, word := WordBefore(code, pos)
	end := start + len(word)
	out := Completions{StartOffset: start, EndOffset: end}

	seen := make(map[string]bool, len(candidates))
	unique := candidates[:0:0]
	for _, c := range candidates {
		if c == "" || seen[c] || c == word {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}

	if word == "" {
		sort.Strings(unique)
		for _, c := range unique {
			out.Items = append(out.Items, Completion{Code: c})
		}
		return out
	}

	ranks := fuzzy.RankFindFold(word, unique)
	sort.SliceStable(ranks, func(i, j int) bool {
		pi := strings.HasPrefix(ranks[i].Target, word)
		pj := strings.HasPrefix(ranks[j].Target, word)
		if pi != pj {
			return pi
		}
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})
	for _, r := range ranks {
		out.Items = append(out.Items, Completion{Code: r.Target})
	}
	return out
}
