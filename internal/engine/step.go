package engine

import (
	"regexp"

	"pricefeed/internal/config"
)

// AssignPrefix marks captures that the pipeline's final collection step
// recognizes as output properties.
const AssignPrefix = "assign:"

// Kind identifies one step operation in the closed catalog.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnicodeNormalize
	KindNormalizeWhitespace
	KindUpper
	KindLower
	KindCapitalize
	KindRemoveSymbols
	KindTrim
	KindRegexExtract
	KindRegexReplace
	KindRegexRemove
	KindMapValue
	KindSplitSizeAndUnits
	KindSplitByDelimiter
	KindExtractAllCapitals
	KindExtractSizeAndUnits
	KindExtractMappedValue
	KindExtractLastWord
	KindExtractMappedWord
	KindAssign
	KindConditionalMapping
)

// opKinds maps configured operation names to step kinds. Names not present
// here compile to KindUnknown, which applies as a no-op.
var opKinds = map[string]Kind{
	"unicode_normalize":               KindUnicodeNormalize,
	"normalize_whitespace":            KindNormalizeWhitespace,
	"upper":                           KindUpper,
	"lower":                           KindLower,
	"capitalize":                      KindCapitalize,
	"remove_symbols":                  KindRemoveSymbols,
	"trim":                            KindTrim,
	"regex_extract":                   KindRegexExtract,
	"regex_replace":                   KindRegexReplace,
	"regex_remove":                    KindRegexRemove,
	"map_value":                       KindMapValue,
	"split_size_and_units":            KindSplitSizeAndUnits,
	"split_by_delimiter":              KindSplitByDelimiter,
	"extract_all_capitals_from_start": KindExtractAllCapitals,
	"extract_size_and_units":          KindExtractSizeAndUnits,
	"extract_mapped_value":            KindExtractMappedValue,
	"extract_last_word":               KindExtractLastWord,
	"extract_mapped_word":             KindExtractMappedWord,
	"assign":                          KindAssign,
	"conditional_mapping":             KindConditionalMapping,
}

// IsKnownOp reports whether name is a recognized operation. Exposed for
// configuration validation; the engine itself never errors on unknown ops.
func IsKnownOp(name string) bool {
	_, ok := opKinds[name]
	return ok
}

// condMapping is one (lookup table, target property) pair of a conditional
// mapping step.
type condMapping struct {
	table  string
	target string
}

// Step is one compiled step of a rule pipeline. Steps are pure: Apply is a
// function of the input state and the shared read-only lookup tables.
type Step struct {
	Kind Kind
	Op   string

	// Shared parameters. source "" means the running text.
	source string
	target string
	table  string
	fold   string

	// Regex steps. A nil re after compilation means the configured pattern
	// was invalid; the step then applies as no-match (configuration errors
	// never abort a file).
	re          *regexp.Regexp
	replacement string

	// Unicode normalization form.
	form string

	// Delimiter split.
	delimiter string
	expected  int
	strict    bool
	output    string

	// Split/extract capture names.
	valueTarget     string
	unitTarget      string
	extractedTarget string
	remainingTarget string

	// Pattern-list extraction.
	patterns []*regexp.Regexp

	// Conditional mapping.
	condDelim string
	mappings  []condMapping
}

// Compile turns one configured step spec into an executable Step.
//
// Compile never fails: unknown ops become KindUnknown (no-op) and invalid
// regular expressions leave the compiled pattern nil (no-match). This mirrors
// the engine's "configuration error = no-op for that step" policy.
func Compile(spec config.StepSpec) Step {
	opt := spec.Options
	st := Step{
		Kind: opKinds[spec.Op],
		Op:   spec.Op,

		source: opt.String("source", ""),
		target: opt.String("target", ""),
		table:  opt.String("table", ""),
		fold:   opt.String("fold", "exact"),

		replacement: opt.String("replacement", ""),
		form:        opt.String("form", "nfkc"),

		delimiter: opt.String("delimiter", ""),
		expected:  opt.Int("expected", 0),
		strict:    opt.Bool("strict", false),
		output:    opt.String("output", "Part"),

		valueTarget:     opt.String("value_target", "Value"),
		unitTarget:      opt.String("unit_target", "Unit"),
		extractedTarget: opt.String("extracted_target", "Extracted"),
		remainingTarget: opt.String("remaining_target", "Remaining"),

		condDelim: opt.String("delimiter", "|"),
	}

	if p := opt.String("pattern", ""); p != "" {
		// Invalid patterns leave st.re nil.
		st.re, _ = regexp.Compile(p)
	}

	switch st.Kind {
	case KindExtractSizeAndUnits:
		pats := opt.StringSlice("patterns")
		if len(pats) == 0 {
			st.patterns = []*regexp.Regexp{reParenVolume}
			break
		}
		for _, p := range pats {
			re, err := regexp.Compile(p)
			if err != nil {
				continue
			}
			st.patterns = append(st.patterns, re)
		}

	case KindConditionalMapping:
		for _, m := range opt.ObjectList("mappings") {
			cm := condMapping{
				table:  m.String("table", ""),
				target: m.String("target", ""),
			}
			if cm.table == "" || cm.target == "" {
				continue
			}
			st.mappings = append(st.mappings, cm)
		}
	}

	return st
}

// Apply executes the step against s and returns the resulting state.
// The default arm preserves the "unknown op is a no-op" contract.
func (st Step) Apply(s State, tables config.TableSet) State {
	switch st.Kind {
	case KindUnicodeNormalize:
		return st.applyUnicodeNormalize(s)
	case KindNormalizeWhitespace:
		return s.WithText(normalizeWhitespace(s.Text))
	case KindUpper:
		return st.applyUpper(s)
	case KindLower:
		return st.applyLower(s)
	case KindCapitalize:
		return st.applyCapitalize(s)
	case KindRemoveSymbols:
		return st.applyRemoveSymbols(s)
	case KindTrim:
		return st.applyTrim(s)
	case KindRegexExtract:
		return st.applyRegexExtract(s)
	case KindRegexReplace:
		return st.applyRegexReplace(s)
	case KindRegexRemove:
		return st.applyRegexRemove(s)
	case KindMapValue:
		return st.applyMapValue(s, tables)
	case KindSplitSizeAndUnits:
		return st.applySplitSizeAndUnits(s)
	case KindSplitByDelimiter:
		return st.applySplitByDelimiter(s)
	case KindExtractAllCapitals:
		return st.applyExtractAllCapitals(s)
	case KindExtractSizeAndUnits:
		return st.applyExtractSizeAndUnits(s)
	case KindExtractMappedValue:
		return st.applyExtractMappedValue(s, tables)
	case KindExtractLastWord:
		return st.applyExtractLastWord(s)
	case KindExtractMappedWord:
		return st.applyExtractMappedWord(s, tables)
	case KindAssign:
		return st.applyAssign(s)
	case KindConditionalMapping:
		return st.applyConditionalMapping(s, tables)
	default:
		return s
	}
}
