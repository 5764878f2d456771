package normalizer

import (
	"regexp"
	"strings"

	"pricefeed/internal/config"
)

// DescriptionExtractor is the pluggable description-based property
// extraction stage. It runs after routing, on the assembled aggregate, and
// may move information from the offer description into product properties.
//
// The stage is independently toggleable per supplier
// (settings.description_extraction); the default is disabled.
type DescriptionExtractor interface {
	Extract(agg *Aggregate)
}

// newDescriptionExtractor selects the stage implementation from settings.
// Unknown modes disable the stage.
func newDescriptionExtractor(s config.Settings) DescriptionExtractor {
	switch s.DescriptionExtraction {
	case "regex":
		return NewRegexDescriptionExtractor(s.DescriptionPatterns)
	default:
		return nil
	}
}

// RegexDescriptionExtractor applies an ordered pattern list to the offer
// description. Named capture groups of each matching pattern become product
// properties (existing properties are not overwritten), and the matched
// spans are removed from the description; the leftover text, whitespace-
// normalized, replaces it.
type RegexDescriptionExtractor struct {
	patterns []*regexp.Regexp
}

// NewRegexDescriptionExtractor compiles the configured patterns. Invalid
// patterns are dropped, consistent with the engine's configuration-error
// policy.
func NewRegexDescriptionExtractor(patterns []string) *RegexDescriptionExtractor {
	e := &RegexDescriptionExtractor{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		e.patterns = append(e.patterns, re)
	}
	return e
}

// Extract implements DescriptionExtractor.
func (e *RegexDescriptionExtractor) Extract(agg *Aggregate) {
	desc := agg.Offer.Description
	if desc == "" {
		return
	}

	for _, re := range e.patterns {
		m := re.FindStringSubmatchIndex(desc)
		if m == nil {
			continue
		}
		for gi, name := range re.SubexpNames() {
			if name == "" || 2*gi+1 >= len(m) || m[2*gi] < 0 {
				continue
			}
			if _, exists := agg.Product.Properties[name]; exists {
				continue
			}
			agg.Product.SetProperty(name, desc[m[2*gi]:m[2*gi+1]])
		}
		desc = strings.Join(strings.Fields(desc[:m[0]]+" "+desc[m[1]:]), " ")
	}

	agg.Offer.Description = desc
}
