package tradeimport

import "strings"

// DefaultStrategyTag is assigned when no detection rule matches.
const DefaultStrategyTag = "unassigned"

// DefaultAccount is assigned when neither the row nor the filename names a
// brokerage account.
const DefaultAccount = "default"

// detectionRule is one (predicate, result) pair. Rules are evaluated
// top-to-bottom, first match wins, making the detection policy data rather
// than control flow.
type detectionRule struct {
	match  func(field, filename string) bool
	result string
}

// systemCodes are the exact identifiers of the user's named trading
// systems. An exact match on the tag field always wins over any keyword
// heuristic.
var systemCodes = []string{
	"momentum",
	"meanrev",
	"dividend",
	"longterm",
}

func fieldEquals(code string) func(field, filename string) bool {
	return func(field, _ string) bool {
		return strings.EqualFold(strings.TrimSpace(field), code)
	}
}

func fieldContains(keyword string) func(field, filename string) bool {
	return func(field, _ string) bool {
		return strings.Contains(strings.ToLower(field), keyword)
	}
}

func fileContains(keyword string) func(field, filename string) bool {
	return func(_, filename string) bool {
		return strings.Contains(strings.ToLower(filename), keyword)
	}
}

// strategyRules is the ordered detection policy: exact system code on the
// tag, then keywords in the tag, then keywords in the source filename.
var strategyRules = buildStrategyRules()

func buildStrategyRules() []detectionRule {
	rules := make([]detectionRule, 0, 16)

	for _, code := range systemCodes {
		rules = append(rules, detectionRule{match: fieldEquals(code), result: code})
	}

	rules = append(rules,
		detectionRule{match: fieldContains("moment"), result: "momentum"},
		detectionRule{match: fieldContains("mean"), result: "meanrev"},
		detectionRule{match: fieldContains("reversion"), result: "meanrev"},
		detectionRule{match: fieldContains("div"), result: "dividend"},
		detectionRule{match: fieldContains("long"), result: "longterm"},
		detectionRule{match: fieldContains("buy and hold"), result: "longterm"},

		detectionRule{match: fileContains("momentum"), result: "momentum"},
		detectionRule{match: fileContains("meanrev"), result: "meanrev"},
		detectionRule{match: fileContains("dividend"), result: "dividend"},
		detectionRule{match: fileContains("longterm"), result: "longterm"},
	)

	return rules
}

// DetectStrategy resolves the strategy tag for a row from its free-text
// tag field and source filename, falling back to DefaultStrategyTag.
func DetectStrategy(tag, filename string) string {
	for _, rule := range strategyRules {
		if rule.match(tag, filename) {
			return rule.result
		}
	}
	return DefaultStrategyTag
}

// accountRules maps broker names appearing in the row's account column or
// the export filename to a canonical account label.
var accountRules = []detectionRule{
	{match: fieldContains("interactive"), result: "ibkr"},
	{match: fieldContains("ibkr"), result: "ibkr"},
	{match: fieldContains("schwab"), result: "schwab"},
	{match: fieldContains("fidelity"), result: "fidelity"},
	{match: fieldContains("vanguard"), result: "vanguard"},
	{match: fieldContains("degiro"), result: "degiro"},
	{match: fileContains("ibkr"), result: "ibkr"},
	{match: fileContains("schwab"), result: "schwab"},
	{match: fileContains("fidelity"), result: "fidelity"},
	{match: fileContains("vanguard"), result: "vanguard"},
	{match: fileContains("degiro"), result: "degiro"},
}

// DetectAccount resolves the brokerage account label for a row. A
// non-empty account column that matches no broker rule is kept verbatim
// (lowercased) so custom account names survive import.
func DetectAccount(account, filename string) string {
	for _, rule := range accountRules {
		if rule.match(account, filename) {
			return rule.result
		}
	}
	if trimmed := strings.TrimSpace(account); trimmed != "" {
		return strings.ToLower(trimmed)
	}
	return DefaultAccount
}
