package extract

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/flottaio/carburante/internal/fattura"
	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
)

// evaluateRule extracts one field's raw string value from a line node.
// Returns ok=false when the value is absent, which is a normal outcome.
// Malformed rules (bad regex, out-of-range capture group) are recorded as
// line errors so a bad template degrades to partial extraction.
func evaluateRule(node *etree.Element, rule *model.FieldExtractionRule, line *model.ExtractedLine) (string, bool) {
	switch rule.Method {
	case model.MethodStatic:
		// Evaluated identically for every line, never consults the
		// document: the mechanism for single-fuel supplier templates.
		return rule.StaticValue, true

	case model.MethodXPath:
		text, ok := fattura.TextFrom(node, rule.XPath)
		if !ok {
			return "", false
		}
		return applyRuleTransform(rule, text), true

	case model.MethodRegex:
		return evaluatePatterns(contextText(node), rule, line)

	case model.MethodXPathRegex:
		text, ok := fattura.TextFrom(node, rule.XPath)
		if !ok {
			return "", false
		}
		return evaluatePatterns(text, rule, line)
	}

	line.AddError("unknown extraction method %q", rule.Method)
	return "", false
}

// evaluatePatterns runs the rule's ordered pattern list over the context
// text. The first pattern that matches wins; later patterns are not tried.
// A non-matching regex yields no value, not an error.
func evaluatePatterns(text string, rule *model.FieldExtractionRule, line *model.ExtractedLine) (string, bool) {
	patterns := rule.RegexPatterns
	if len(patterns) == 0 {
		patterns = []model.RegexPattern{{
			Regex:      rule.Regex,
			RegexGroup: rule.RegexGroup,
		}}
	}

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern.Regex)
		if err != nil {
			line.AddError("invalid regex %q: %v", pattern.Regex, err)
			continue
		}

		group := pattern.GroupOrDefault()
		if group > re.NumSubexp() {
			line.AddError("regex %q has %d capture groups, group %d requested", pattern.Regex, re.NumSubexp(), group)
			continue
		}

		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		value := match[group]

		// Transform applies after the regex capture, never before.
		// A per-pattern transform overrides the rule-level one.
		transform := rule.Transform
		if pattern.Transform != nil {
			transform = pattern.Transform
		}
		if transform != nil {
			value = normalize.ApplyTransform(*transform, value)
		}
		return value, true
	}

	return "", false
}

func applyRuleTransform(rule *model.FieldExtractionRule, value string) string {
	if rule.Transform != nil {
		return normalize.ApplyTransform(*rule.Transform, value)
	}
	return value
}

// contextText flattens all text content of a line subtree into one string,
// the evaluation context for REGEX-method rules.
func contextText(el *etree.Element) string {
	var parts []string
	collectText(el, &parts)
	return strings.Join(parts, " ")
}

func collectText(el *etree.Element, parts *[]string) {
	if text := strings.TrimSpace(el.Text()); text != "" {
		*parts = append(*parts, text)
	}
	for _, child := range el.ChildElements() {
		collectText(child, parts)
	}
}
