package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"pricefeed/internal/config"
)

// titleCaser is locale-invariant word title-casing, shared across steps.
// cases.Caser is not safe for concurrent use, so a fresh one is taken per call
// via the factory.
func titleCaser() cases.Caser { return cases.Title(language.Und) }

// reSymbols matches characters that are neither word characters nor
// whitespace. Word characters follow Unicode semantics (letters, digits,
// underscore), matching the behavior of the configured rule corpus.
var reSymbols = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (st Step) applyUnicodeNormalize(s State) State {
	var form norm.Form
	switch strings.ToLower(st.form) {
	case "nfc":
		form = norm.NFC
	case "nfd":
		form = norm.NFD
	case "nfkd":
		form = norm.NFKD
	default:
		// Compatibility-composed is the default form.
		form = norm.NFKC
	}
	return s.WithText(form.String(s.Text))
}

func (st Step) applyUpper(s State) State {
	return s.WithText(strings.ToUpper(s.Text))
}

func (st Step) applyLower(s State) State {
	return s.WithText(strings.ToLower(s.Text))
}

// applyCapitalize lower-cases the text and then title-cases each word.
func (st Step) applyCapitalize(s State) State {
	return s.WithText(titleCaser().String(strings.ToLower(s.Text)))
}

func (st Step) applyRemoveSymbols(s State) State {
	return s.WithText(reSymbols.ReplaceAllString(s.Text, ""))
}

func (st Step) applyTrim(s State) State {
	return s.WithText(strings.TrimSpace(s.Text))
}

// applyRegexExtract matches the compiled pattern against the running text.
// On success every named capture group becomes a named capture in the output
// state; unnamed numeric groups are ignored. On failure (or an invalid
// configured pattern) the state is unchanged.
func (st Step) applyRegexExtract(s State) State {
	if st.re == nil {
		return s
	}
	m := st.re.FindStringSubmatch(s.Text)
	if m == nil {
		return s
	}
	for i, name := range st.re.SubexpNames() {
		if name == "" || i >= len(m) {
			continue
		}
		s = s.WithCapture(name, m[i])
	}
	return s
}

func (st Step) applyRegexReplace(s State) State {
	if st.re == nil {
		return s
	}
	return s.WithText(st.re.ReplaceAllString(s.Text, st.replacement))
}

func (st Step) applyRegexRemove(s State) State {
	if st.re == nil {
		return s
	}
	return s.WithText(st.re.ReplaceAllString(s.Text, ""))
}

// applyMapValue resolves the source value against a named lookup table.
// On a hit the mapped value either replaces the running text (no target) or
// is written to the target capture. On a miss, or when the table does not
// exist, the state passes through unchanged.
func (st Step) applyMapValue(s State, tables config.TableSet) State {
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	table, ok := tables.Table(st.table)
	if !ok {
		return s
	}
	mapped, ok := table.GetFold(src, st.fold)
	if !ok {
		return s
	}
	if st.target != "" {
		return s.WithCapture(st.target, mapped)
	}
	return s.WithText(mapped)
}

// applyAssign renames a source value (running text, a named capture, or an
// intermediate assign:-prefixed capture) to a target property, materialized
// with the assign: prefix so rule collection picks it up.
func (st Step) applyAssign(s State) State {
	if st.target == "" {
		return s
	}
	src, ok := s.source(st.source)
	if !ok {
		return s
	}
	return s.WithCapture(AssignPrefix+st.target, src)
}
