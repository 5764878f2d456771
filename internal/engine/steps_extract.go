package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"pricefeed/internal/config"
)

var (
	// number followed by an optional-whitespace alphabetic unit token.
	reSizeUnit = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*([A-Za-z]+)`)
	// numeric-only fallback when no unit follows the amount.
	reSizeOnly = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*$`)

	// default pattern for extract_size_and_units: a parenthesized volume
	// expression such as "(100 ml)" or "(0,7l)".
	reParenVolume = regexp.MustCompile(`\((\d+(?:[.,]\d+)?\s*[A-Za-z]*)\)`)

	// a capital word: upper-case letters or ampersands only. Tokens
	// containing digits fail this test.
	reCapitalWord = regexp.MustCompile(`^[A-Z&]+$`)
)

// applySplitSizeAndUnits extracts a numeric amount and trailing alphabetic
// unit token from the source value. The unit capture is upper-cased; when no
// unit is present the numeric-only fallback captures the amount and leaves
// the unit empty. No match leaves the state unchanged.
func (st Step) applySplitSizeAndUnits(s State) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	if m := reSizeUnit.FindStringSubmatch(src); m != nil {
		return s.
			WithCapture(st.valueTarget, m[1]).
			WithCapture(st.unitTarget, strings.ToUpper(m[2]))
	}
	if m := reSizeOnly.FindStringSubmatch(src); m != nil {
		return s.
			WithCapture(st.valueTarget, m[1]).
			WithCapture(st.unitTarget, "")
	}
	return s
}

// applySplitByDelimiter splits the source value on a literal delimiter.
//
// With a configured expected part count, strict mode marks a mismatched
// count invalid (<output>.Valid=false plus an error marker) and emits no
// parts; lenient mode pads short results with empty strings and truncates
// long ones. <output>.Length and <output>[i] captures are always emitted for
// the parts that survive.
func (st Step) applySplitByDelimiter(s State) State {
	src, ok := s.source(st.source)
	if !ok || st.delimiter == "" {
		return s
	}

	parts := strings.Split(src, st.delimiter)

	if st.expected > 0 && len(parts) != st.expected {
		if st.strict {
			return s.
				WithCapture(st.output+".Valid", "false").
				WithCapture(st.output+".Error",
					fmt.Sprintf("expected %d parts, got %d", st.expected, len(parts))).
				WithCapture(st.output+".Length", "0")
		}
		for len(parts) < st.expected {
			parts = append(parts, "")
		}
		parts = parts[:st.expected]
	}

	s = s.WithCapture(st.output+".Valid", "true")
	s = s.WithCapture(st.output+".Length", strconv.Itoa(len(parts)))
	for i, p := range parts {
		s = s.WithCapture(fmt.Sprintf("%s[%d]", st.output, i), p)
	}
	return s
}

// applyExtractAllCapitals scans whitespace-tokenized words from the start of
// the source value. The maximal leading run of all-capital-or-ampersand
// tokens is the extracted prefix, except that a trailing single-letter token
// is excluded from the prefix and starts the remaining text instead.
func (st Step) applyExtractAllCapitals(s State) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}

	tokens := strings.Fields(src)
	run := 0
	for run < len(tokens) && reCapitalWord.MatchString(tokens[run]) {
		run++
	}

	// A single trailing letter is more likely the start of the remainder
	// (e.g. a size or series marker) than part of the brand prefix.
	if run > 0 && isSingleLetter(tokens[run-1]) {
		run--
	}

	extracted := strings.Join(tokens[:run], " ")
	remaining := strings.Join(tokens[run:], " ")
	return s.
		WithCapture(st.extractedTarget, extracted).
		WithCapture(st.remainingTarget, remaining)
}

func isSingleLetter(tok string) bool {
	r, size := utf8.DecodeRuneInString(tok)
	return size == len(tok) && unicode.IsLetter(r)
}

// applyExtractSizeAndUnits tries each configured pattern in order against the
// source text. The first match's first capture group is the extracted size;
// the matched span is replaced by a single space and the result
// whitespace-normalized to form the remainder. No pattern matching leaves
// the state unchanged.
func (st Step) applyExtractSizeAndUnits(s State) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	for _, re := range st.patterns {
		loc := re.FindStringSubmatchIndex(src)
		if loc == nil {
			continue
		}
		size := ""
		if len(loc) >= 4 && loc[2] >= 0 {
			size = src[loc[2]:loc[3]]
		}
		remaining := normalizeWhitespace(src[:loc[0]] + " " + src[loc[1]:])
		return s.
			WithCapture(st.extractedTarget, size).
			WithCapture(st.remainingTarget, remaining)
	}
	return s
}

// applyExtractMappedValue scans the lookup table's keys, in declaration
// order, for the first one that occurs as a substring of the source value.
// On a hit the mapped value is extracted and the key is textually removed
// from the remainder; on a miss the extracted value is empty and the
// remainder is the trimmed source.
func (st Step) applyExtractMappedValue(s State, tables config.TableSet) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	if table, ok := tables.Table(st.table); ok {
		for _, key := range table.Keys() {
			if key == "" || !strings.Contains(src, key) {
				continue
			}
			mapped, _ := table.Get(key)
			remaining := strings.TrimSpace(strings.Replace(src, key, "", 1))
			return s.
				WithCapture(st.extractedTarget, mapped).
				WithCapture(st.remainingTarget, remaining)
		}
	}
	return s.
		WithCapture(st.extractedTarget, "").
		WithCapture(st.remainingTarget, strings.TrimSpace(src))
}

// applyExtractLastWord splits the source on whitespace: the last token is the
// word, the remaining tokens joined by single spaces form the remainder
// (empty when only one token existed).
func (st Step) applyExtractLastWord(s State) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	tokens := strings.Fields(src)
	if len(tokens) == 0 {
		return s.
			WithCapture(st.valueTarget, "").
			WithCapture(st.remainingTarget, "")
	}
	return s.
		WithCapture(st.valueTarget, tokens[len(tokens)-1]).
		WithCapture(st.remainingTarget, strings.Join(tokens[:len(tokens)-1], " "))
}

// applyExtractMappedWord scans whitespace-delimited tokens left to right for
// the first one present as a key in the lookup table (under the configured
// case folding). On a hit the mapped value is extracted and exactly that
// token is removed from the sequence to form the remainder; on a miss both
// outputs default to empty / trimmed source.
func (st Step) applyExtractMappedWord(s State, tables config.TableSet) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	if table, ok := tables.Table(st.table); ok {
		tokens := strings.Fields(src)
		for i, tok := range tokens {
			mapped, hit := table.GetFold(tok, st.fold)
			if !hit {
				continue
			}
			rest := make([]string, 0, len(tokens)-1)
			rest = append(rest, tokens[:i]...)
			rest = append(rest, tokens[i+1:]...)
			return s.
				WithCapture(st.extractedTarget, mapped).
				WithCapture(st.remainingTarget, strings.Join(rest, " "))
		}
	}
	return s.
		WithCapture(st.extractedTarget, "").
		WithCapture(st.remainingTarget, strings.TrimSpace(src))
}

// applyConditionalMapping splits the source on the configured delimiter into
// candidate tokens and evaluates each (table, target) pair independently:
// the first token present as a table key (upper-folded comparison) decides
// the pair. Its mapped value is assigned to the target property when
// non-empty; an empty mapped value suppresses both the assignment and the
// fallback. Only when no token is present at all does a non-empty fallback
// under the empty key apply.
func (st Step) applyConditionalMapping(s State, tables config.TableSet) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	tokens := strings.Split(src, st.condDelim)

	for _, cm := range st.mappings {
		table, ok := tables.Table(cm.table)
		if !ok {
			continue
		}

		matched := false
		for _, tok := range tokens {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			mapped, hit := table.GetFold(tok, "upper")
			if !hit {
				continue
			}
			matched = true
			if mapped != "" {
				s = s.WithCapture(AssignPrefix+cm.target, mapped)
			}
			break
		}
		if !matched {
			if fallback, ok := table.Fallback(); ok && fallback != "" {
				s = s.WithCapture(AssignPrefix+cm.target, fallback)
			}
		}
	}
	return s
}
