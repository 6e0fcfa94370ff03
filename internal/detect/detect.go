// Package detect is the heuristic detection bundle: every regex and keyword
// list used by the scanners lives here, compiled once at construction. The
// scanners treat it as a capability provider and never compile patterns of
// their own.
package detect

import (
	"regexp"
	"sort"
	"strings"
)

// Sensitive entity types reported in spans and used for vault placeholders.
const (
	EntityEmail      = "EMAIL"
	EntityPhone      = "PHONE"
	EntityCreditCard = "CREDIT_CARD"
	EntityIBAN       = "IBAN"
	EntitySSN        = "SSN"
	EntityIPAddress  = "IP"
	EntityPersonName = "NAME"
	EntityAPIToken   = "API_TOKEN"
)

// Span is one detected sensitive region, byte-addressed into the input.
type Span struct {
	Type  string
	Start int
	End   int
}

// Value returns the matched substring of text.
func (s Span) Value(text string) string {
	if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
		return ""
	}
	return text[s.Start:s.End]
}

type entityPattern struct {
	entity string
	re     *regexp.Regexp
	// group selects a capture group instead of the whole match, for
	// patterns that need surrounding context to be precise.
	group int
}

// Bundle holds the compiled pattern sets. Zero-configuration construction;
// topic keyword sets can be extended per deployment.
type Bundle struct {
	entities []entityPattern

	injectionPatterns []*regexp.Regexp
	refusalPatterns   []*regexp.Regexp
	toxicTerms        []weightedPattern

	topics map[string][]*regexp.Regexp
}

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

// NewBundle compiles the built-in pattern sets plus any extra topic keyword
// lists supplied by configuration (topic -> keywords).
func NewBundle(extraTopics map[string][]string) *Bundle {
	b := &Bundle{
		entities: []entityPattern{
			{entity: EntityEmail, re: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
			{entity: EntityIBAN, re: regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`)},
			{entity: EntityCreditCard, re: regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`)},
			{entity: EntitySSN, re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
			{entity: EntityIPAddress, re: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
			{entity: EntityPhone, re: regexp.MustCompile(`\+\d[\d\s\-().]{7,}\d`)},
			{entity: EntityPersonName, re: regexp.MustCompile(`(?i)\bmy name is\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`), group: 1},
			{entity: EntityAPIToken, re: regexp.MustCompile(`\b(?:sk|pk|ghp|xox[bap])-[A-Za-z0-9_\-]{16,}\b`)},
		},

		injectionPatterns: compileAll(
			`(?i)ignore\s+(?:all\s+)?(?:previous|prior|above)\s+instructions`,
			`(?i)forget\s+(?:all\s+)?(?:previous|prior|your)\s+(?:instructions|rules)`,
			`(?i)disregard\s+(?:all\s+)?(?:previous|prior|above|your)\s+(?:instructions|rules|guidelines)`,
			`(?i)reveal\s+(?:your\s+|the\s+)?(?:hidden\s+)?system\s+prompt`,
			`(?i)you\s+are\s+no\s+longer\s+bound\s+by`,
			`(?i)\bdo\s+anything\s+now\b`,
			`(?i)\bjailbreak\b`,
			`(?i)bypass\s+(?:your\s+)?safety`,
			`(?i)pretend\s+(?:that\s+)?you\s+(?:are|have)\s+no\s+(?:restrictions|rules|filters)`,
			`(?i)enable\s+developer\s+mode`,
		),

		refusalPatterns: compileAll(
			`(?i)\bI(?:'m| am) sorry,? but I (?:can(?:no|')t|am unable to|won't)\b`,
			`(?i)\bI can(?:no|')t (?:help|assist|comply) with\b`,
			`(?i)\bI am unable to (?:help|assist|provide|comply)\b`,
			`(?i)\bAs an AI(?: language model)?,? I (?:can(?:no|')t|am not able to|must decline)\b`,
			`(?i)\bI (?:must|have to) decline\b`,
			`(?i)\bI won't (?:be able to )?(?:help|assist|provide)\b`,
		),

		toxicTerms: []weightedPattern{
			{re: regexp.MustCompile(`(?i)\bidiot\b`), weight: 0.45},
			{re: regexp.MustCompile(`(?i)\bstupid\b`), weight: 0.45},
			{re: regexp.MustCompile(`(?i)\bmoron\b`), weight: 0.5},
			{re: regexp.MustCompile(`(?i)\bterrible\b`), weight: 0.35},
			{re: regexp.MustCompile(`(?i)\bworthless\b`), weight: 0.5},
			{re: regexp.MustCompile(`(?i)\bI hate you\b`), weight: 0.5},
			{re: regexp.MustCompile(`(?i)\bhate you\b`), weight: 0.4},
			{re: regexp.MustCompile(`(?i)\bkill (?:you|yourself|him|her|them)\b`), weight: 0.9},
			{re: regexp.MustCompile(`(?i)\bgo die\b`), weight: 0.9},
			{re: regexp.MustCompile(`(?i)\bshut up\b`), weight: 0.35},
		},

		topics: map[string][]*regexp.Regexp{
			"violence": compileAll(
				`(?i)\bkill(?:ing)?\b`, `(?i)\bmurder\b`, `(?i)\bweapons?\b`,
				`(?i)\bbombs?\b`, `(?i)\bexplosives?\b`, `(?i)\bshoot(?:ing)?\b`,
				`(?i)\battack(?:ing)?\b`, `(?i)\bstab(?:bing)?\b`,
			),
			"illegal_activities": compileAll(
				`(?i)\bsteal(?:ing)?\b`, `(?i)\blaunder(?:ing)?\b`,
				`(?i)\bcounterfeit\b`, `(?i)\bsmuggl(?:e|ing)\b`,
				`(?i)\bforge(?:d|ry)?\s+documents?\b`, `(?i)\billegal\s+drugs?\b`,
				`(?i)\bbreak\s+into\b`, `(?i)\bpick\s+(?:a\s+)?locks?\b`,
			),
		},
	}

	for topic, keywords := range extraTopics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic == "" || len(keywords) == 0 {
			continue
		}
		var res []*regexp.Regexp
		for _, kw := range keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
		if len(res) > 0 {
			b.topics[topic] = res
		}
	}

	return b
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// FindSensitiveSpans returns the sensitive entity spans in text, sorted by
// position with overlaps removed (earlier span wins, longer on ties).
func (b *Bundle) FindSensitiveSpans(text string) []Span {
	var spans []Span
	for _, ep := range b.entities {
		var matches [][]int
		if ep.group > 0 {
			matches = ep.re.FindAllStringSubmatchIndex(text, -1)
		} else {
			matches = ep.re.FindAllStringIndex(text, -1)
		}
		for _, m := range matches {
			start, end := m[0], m[1]
			if ep.group > 0 {
				if len(m) <= 2*ep.group+1 || m[2*ep.group] < 0 {
					continue
				}
				start, end = m[2*ep.group], m[2*ep.group+1]
			}
			spans = append(spans, Span{Type: ep.entity, Start: start, End: end})
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	out := spans[:0]
	lastEnd := -1
	for _, s := range spans {
		if s.Start < lastEnd {
			continue
		}
		out = append(out, s)
		lastEnd = s.End
	}
	return out
}

// InjectionScore reports prompt-injection confidence: 1.0 on a pattern hit,
// 0 otherwise. ML providers can refine this; the heuristic is binary.
func (b *Bundle) InjectionScore(text string) float64 {
	for _, re := range b.injectionPatterns {
		if re.MatchString(text) {
			return 1.0
		}
	}
	return 0
}

// ToxicityScore accumulates lexicon weights, capped at 1.
func (b *Bundle) ToxicityScore(text string) float64 {
	var score float64
	for _, wp := range b.toxicTerms {
		if wp.re.MatchString(text) {
			score += wp.weight
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// RefusalMatch reports whether text looks like a canned refusal.
func (b *Bundle) RefusalMatch(text string) bool {
	for _, re := range b.refusalPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// TopicScore returns a confidence for one topic based on how many of its
// keywords appear. One keyword is weak evidence; three or more is certain.
func (b *Bundle) TopicScore(topic, text string) float64 {
	res, ok := b.topics[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		return 0
	}
	hits := 0
	for _, re := range res {
		if re.MatchString(text) {
			hits++
		}
	}
	switch {
	case hits == 0:
		return 0
	case hits == 1:
		return 0.6
	case hits == 2:
		return 0.85
	default:
		return 1.0
	}
}

// Topics lists the topics this bundle can score.
func (b *Bundle) Topics() []string {
	out := make([]string, 0, len(b.topics))
	for t := range b.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
