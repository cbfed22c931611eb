package extractor

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// TypeInfo describes one entity type in the user-editable configuration.
type TypeInfo struct {
	DisplayName string `json:"display_name" yaml:"display_name" mapstructure:"display_name"`
	Color       string `json:"color" yaml:"color" mapstructure:"color"`
	Enabled     bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// RuleConfig is one regex extraction rule as stored in configuration.
// EntityType may be empty, in which case the type is inferred from keywords
// in the rule name when the rule is compiled.
type RuleConfig struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	Pattern    string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
	EntityType string `json:"entity_type,omitempty" yaml:"entity_type,omitempty" mapstructure:"entity_type"`
	Enabled    bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// Config is the full extraction configuration: the entity-type table, the
// per-type dictionaries and the ordered rule list. A Config value is
// immutable once handed to New; reloading configuration produces a new
// Extractor rather than mutating a shared one.
type Config struct {
	Types        map[types.EntityType]TypeInfo `json:"entity_types" yaml:"entity_types" mapstructure:"entity_types"`
	Dictionaries map[types.EntityType][]string `json:"dictionaries" yaml:"dictionaries" mapstructure:"dictionaries"`
	Rules        []RuleConfig                  `json:"rules" yaml:"rules" mapstructure:"rules"`
}

// DefaultConfig returns the built-in configuration: the seven builtin entity
// types enabled with empty dictionaries and a small starter rule set.
func DefaultConfig() Config {
	cfg := Config{
		Types:        make(map[types.EntityType]TypeInfo),
		Dictionaries: make(map[types.EntityType][]string),
	}
	display := map[types.EntityType]string{
		types.EntityTypePerson:  "人物",
		types.EntityTypeOrg:     "机构",
		types.EntityTypeLoc:     "地点",
		types.EntityTypeTech:    "技术",
		types.EntityTypeProduct: "产品",
		types.EntityTypeEvent:   "事件",
		types.EntityTypeConcept: "概念",
	}
	colors := map[types.EntityType]string{
		types.EntityTypePerson:  "#e74c3c",
		types.EntityTypeOrg:     "#3498db",
		types.EntityTypeLoc:     "#2ecc71",
		types.EntityTypeTech:    "#9b59b6",
		types.EntityTypeProduct: "#f39c12",
		types.EntityTypeEvent:   "#1abc9c",
		types.EntityTypeConcept: "#95a5a6",
	}
	for _, et := range types.BuiltinEntityTypes() {
		cfg.Types[et] = TypeInfo{DisplayName: display[et], Color: colors[et], Enabled: true}
		cfg.Dictionaries[et] = nil
	}
	cfg.Rules = []RuleConfig{
		{Name: "tech_term", Pattern: `[A-Za-z][A-Za-z0-9+#.]{1,24}(?:框架|引擎|协议|算法|模型)`, Enabled: true},
		{Name: "product_version", Pattern: `[A-Za-z][A-Za-z0-9]*\s?[vV]?\d+(?:\.\d+)+`, EntityType: string(types.EntityTypeProduct), Enabled: true},
	}
	return cfg
}

// compiledRule is a rule resolved at config-load time: pattern compiled and
// entity type fixed, so nothing is inferred per extraction call.
type compiledRule struct {
	name       string
	pattern    *regexp.Regexp
	entityType types.EntityType
}

// ruleNameTypeHints maps keywords found in rule names to entity types, in
// match priority order.
var ruleNameTypeHints = []struct {
	keywords []string
	et       types.EntityType
}{
	{[]string{"person", "people", "name", "人名", "姓名", "人物"}, types.EntityTypePerson},
	{[]string{"org", "company", "institution", "机构", "公司", "组织"}, types.EntityTypeOrg},
	{[]string{"loc", "place", "address", "地名", "地点", "地址"}, types.EntityTypeLoc},
	{[]string{"product", "产品"}, types.EntityTypeProduct},
	{[]string{"event", "事件"}, types.EntityTypeEvent},
	{[]string{"concept", "概念"}, types.EntityTypeConcept},
}

// inferRuleType resolves the entity type of a rule from its declared type,
// falling back to keyword matching on the rule name and finally to TECH.
func inferRuleType(rule RuleConfig) types.EntityType {
	if rule.EntityType != "" {
		return types.EntityType(rule.EntityType)
	}
	name := strings.ToLower(rule.Name)
	for _, hint := range ruleNameTypeHints {
		for _, kw := range hint.keywords {
			if strings.Contains(name, kw) {
				return hint.et
			}
		}
	}
	return types.EntityTypeTech
}

// compileRules compiles the enabled rules. A pattern that fails to compile
// is logged and skipped; extraction continues with the remaining rules.
func compileRules(rules []RuleConfig, logger *slog.Logger) []compiledRule {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			logger.Warn("skipping extraction rule with invalid pattern",
				"rule", rule.Name,
				"pattern", rule.Pattern,
				"error", err)
			continue
		}
		compiled = append(compiled, compiledRule{
			name:       rule.Name,
			pattern:    re,
			entityType: inferRuleType(rule),
		})
	}
	return compiled
}

// enabledType reports whether an entity type participates in the dictionary
// pass. Unknown types default to enabled so user dictionaries work without a
// matching table entry.
func (c Config) enabledType(et types.EntityType) bool {
	info, ok := c.Types[et]
	if !ok {
		return true
	}
	return info.Enabled
}
