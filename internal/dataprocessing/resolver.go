package dataprocessing

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v2"

	"bopcli/pkg/contracts/domain"
)

// CategoryRule maps a canonical category to the keyword phrases that identify it
type CategoryRule struct {
	Key      string   `yaml:"key" json:"key"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// CategoryMap maps canonical category keys to the raw description they resolved to
type CategoryMap map[string]string

// Has reports whether a category was resolved
func (m CategoryMap) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// DefaultCategoryRules returns the built-in rule table. Order is significant only
// for reporting; each key is resolved independently.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Key: domain.CategoryExports, Keywords: []string{"export", "exports", "exports_of_goods", "exports_of_goods_fob"}},
		{Key: domain.CategoryImports, Keywords: []string{"import", "imports", "imports_of_goods", "imports_of_goods_fob"}},
		{Key: domain.CategoryServicesExport, Keywords: []string{"services export", "services_exports", "services_export"}},
		{Key: domain.CategoryServicesImport, Keywords: []string{"services import", "services_imports", "services_import"}},
		{Key: domain.CategoryPICredit, Keywords: []string{"primary income credit", "primary income: credit", "pi credit", "pi_credit"}},
		{Key: domain.CategoryPIDebit, Keywords: []string{"primary income debit", "primary income: debit", "pi debit", "pi_debit"}},
		{Key: domain.CategorySecondaryCredit, Keywords: []string{"secondary income credit", "secondary credit", "secondary_income_credit"}},
		{Key: domain.CategorySecondaryDebit, Keywords: []string{"secondary income debit", "secondary debit", "secondary_income_debit"}},
		{Key: domain.CategoryWorkersRemittances, Keywords: []string{"workers remittances", "workers' remittances", "workers_remittances", "remittances"}},
		{Key: domain.CategoryCurrentAccountBalance, Keywords: []string{"current account balance", "current_account_balance", "current_account"}},
		{Key: domain.CategoryGDP, Keywords: []string{"gdp", "gross_domestic_product", "gdp_current_prices", "gdp_current"}},
	}
}

// LoadCategoryRules reads an ordered rule table from a YAML file of the form
//
//	- key: exports
//	  keywords: [export, exports]
func LoadCategoryRules(path string) ([]CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category rules: %w", err)
	}
	return ParseCategoryRules(data)
}

// ParseCategoryRules decodes and validates a YAML rule table
func ParseCategoryRules(data []byte) ([]CategoryRule, error) {
	var rules []CategoryRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode category rules: %w", err)
	}
	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if strings.TrimSpace(rule.Key) == "" {
			return nil, fmt.Errorf("category rule %d: key is required", i)
		}
		if seen[rule.Key] {
			return nil, fmt.Errorf("category rule %d: duplicate key %q", i, rule.Key)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("category rule %q: at least one keyword is required", rule.Key)
		}
		seen[rule.Key] = true
	}
	return rules, nil
}

// NormalizeLabel lower-cases s, replaces every rune that is neither a letter,
// digit nor whitespace with a space, and trims the result.
func NormalizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

type compiledRule struct {
	key      string
	keywords []string
}

// Resolver matches free-text descriptions to canonical categories by keyword containment
type Resolver struct {
	rules []compiledRule
}

// NewResolver compiles a rule table. Keywords are normalized like labels; empty ones are ignored.
func NewResolver(rules []CategoryRule) *Resolver {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		c := compiledRule{key: rule.Key}
		for _, kw := range rule.Keywords {
			if norm := NormalizeLabel(kw); norm != "" {
				c.keywords = append(c.keywords, norm)
			}
		}
		compiled = append(compiled, c)
	}
	return &Resolver{rules: compiled}
}

// NewDefaultResolver uses DefaultCategoryRules
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultCategoryRules())
}

// Resolve assigns each category the first label, in input order, whose normalized
// form contains any of the category's keywords. Unmatched categories are absent.
func (r *Resolver) Resolve(labels []string) CategoryMap {
	normalized := make([]string, len(labels))
	for i, label := range labels {
		normalized[i] = NormalizeLabel(label)
	}

	out := make(CategoryMap, len(r.rules))
	for _, rule := range r.rules {
		for i, norm := range normalized {
			if containsAny(norm, rule.keywords) {
				out[rule.key] = labels[i]
				break
			}
		}
	}
	return out
}

// Keys returns the category keys in rule order
func (r *Resolver) Keys() []string {
	keys := make([]string, len(r.rules))
	for i, rule := range r.rules {
		keys[i] = rule.key
	}
	return keys
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
