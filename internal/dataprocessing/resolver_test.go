package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bopcli/pkg/contracts/domain"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Exports of goods fob", want: "exports of goods fob"},
		{input: "  Primary Income: Credit ", want: "primary income  credit"},
		{input: "Workers' remittances", want: "workers  remittances"},
		{input: "current_account_balance", want: "current account balance"},
		{input: "(GDP)", want: "gdp"},
		{input: "---", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLabel(tt.input))
		})
	}
}

func TestResolver_GoodsLabels(t *testing.T) {
	got := NewDefaultResolver().Resolve([]string{"Exports of goods fob", "Imports of goods fob"})

	assert.Equal(t, CategoryMap{
		domain.CategoryExports: "Exports of goods fob",
		domain.CategoryImports: "Imports of goods fob",
	}, got)
}

func TestResolver_FullBalanceOfPayments(t *testing.T) {
	labels := []string{
		"Current account balance",
		"Exports of goods fob",
		"GDP at current prices",
		"Imports of goods fob",
		"Primary income: credit",
		"Primary income: debit",
		"Secondary income credit",
		"Secondary income debit",
		"Services exports",
		"Services imports",
		"Workers' remittances",
	}

	got := NewDefaultResolver().Resolve(labels)

	assert.Equal(t, "Current account balance", got[domain.CategoryCurrentAccountBalance])
	assert.Equal(t, "Exports of goods fob", got[domain.CategoryExports])
	assert.Equal(t, "Imports of goods fob", got[domain.CategoryImports])
	assert.Equal(t, "GDP at current prices", got[domain.CategoryGDP])
	assert.Equal(t, "Primary income: credit", got[domain.CategoryPICredit])
	assert.Equal(t, "Primary income: debit", got[domain.CategoryPIDebit])
	assert.Equal(t, "Secondary income credit", got[domain.CategorySecondaryCredit])
	assert.Equal(t, "Secondary income debit", got[domain.CategorySecondaryDebit])
	assert.Equal(t, "Services exports", got[domain.CategoryServicesExport])
	assert.Equal(t, "Services imports", got[domain.CategoryServicesImport])
	assert.Equal(t, "Workers' remittances", got[domain.CategoryWorkersRemittances])
	assert.Len(t, got, 11)
}

func TestResolver_FirstLabelWins(t *testing.T) {
	got := NewDefaultResolver().Resolve([]string{"Re-exports", "Exports of goods fob"})
	assert.Equal(t, "Re-exports", got[domain.CategoryExports])

	got = NewDefaultResolver().Resolve([]string{"Exports of goods fob", "Re-exports"})
	assert.Equal(t, "Exports of goods fob", got[domain.CategoryExports])
}

func TestResolver_NoExclusivity(t *testing.T) {
	got := NewDefaultResolver().Resolve([]string{"Exports and imports"})

	assert.Equal(t, "Exports and imports", got[domain.CategoryExports])
	assert.Equal(t, "Exports and imports", got[domain.CategoryImports])
}

func TestResolver_AbsentCategories(t *testing.T) {
	got := NewDefaultResolver().Resolve([]string{"Capital account", "Financial account"})

	assert.Empty(t, got)
	assert.False(t, got.Has(domain.CategoryExports))
}

func TestResolver_CustomRules(t *testing.T) {
	r := NewResolver([]CategoryRule{
		{Key: "oil", Keywords: []string{"crude", "petroleum"}},
		{Key: "blank", Keywords: []string{"  ", "!!"}},
	})

	got := r.Resolve([]string{"Crude oil exports", "Anything"})

	assert.Equal(t, CategoryMap{"oil": "Crude oil exports"}, got)
	assert.Equal(t, []string{"oil", "blank"}, r.Keys())
}

func TestLoadCategoryRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
- key: exports
  keywords: ["goods exports", "merchandise exports"]
- key: gdp
  keywords: ["gross domestic product"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadCategoryRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "exports", rules[0].Key)

	got := NewResolver(rules).Resolve([]string{"Gross Domestic Product (current)", "Merchandise exports"})
	assert.Equal(t, "Gross Domestic Product (current)", got["gdp"])
	assert.Equal(t, "Merchandise exports", got["exports"])
}

func TestParseCategoryRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not a list", yaml: "key: exports"},
		{name: "missing key", yaml: "- keywords: [a]"},
		{name: "duplicate key", yaml: "- key: a\n  keywords: [x]\n- key: a\n  keywords: [y]"},
		{name: "no keywords", yaml: "- key: a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCategoryRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCategoryRules_MissingFile(t *testing.T) {
	_, err := LoadCategoryRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
