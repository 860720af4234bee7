package category

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table, err := Default(Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, table.Version)
	assert.Equal(t, []string{"bank", "fpi", "insur", "mf", "promoter", "public"}, table.Names())

	for cat, refs := range table.Categories {
		assert.NotEmpty(t, refs, "category %s must have refs", cat)
	}

	// Spot-check aliases known from past filing seasons.
	assert.True(t, table.Contains("bank", "BanksI"))
	assert.True(t, table.Contains("bank", "DetailsOfSharesHeldByBanks001I"))
	assert.True(t, table.Contains("promoter", "ShareholdingOfPromoterAndPromoterGroupI"))
	assert.True(t, table.Contains("public", "PublicShareholdingI"))
	assert.True(t, table.Contains("mf", "MutualFundsOrUtiI"))
	assert.True(t, table.Contains("fpi", "ForeignPortfolioInvestorI"))
	assert.True(t, table.Contains("insur", "InsuranceCompaniesI"))
	assert.False(t, table.Contains("bank", "InsuranceCompaniesI"))
}

func TestDefault_IsDisjoint(t *testing.T) {
	// The shipped table has no overlapping refs in practice; the strict
	// check must accept it.
	_, err := Default(Options{RequireDisjoint: true})
	require.NoError(t, err)
}

func TestParse_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing version", "categories:\n  bank: [BanksI]\n"},
		{"no categories", "version: \"1\"\n"},
		{"empty category", "version: \"1\"\ncategories:\n  bank: []\n"},
		{"not yaml", "{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), Options{})
			assert.Error(t, err)
		})
	}
}

func TestParse_OverlapPolicy(t *testing.T) {
	overlapping := []byte(`version: "1"
categories:
  bank: [SharedRef, BanksI]
  insur: [SharedRef]
`)

	// Overlap is allowed by default: aggregation fans out into every
	// matching category.
	table, err := Parse(overlapping, Options{})
	require.NoError(t, err)
	assert.True(t, table.Contains("bank", "SharedRef"))
	assert.True(t, table.Contains("insur", "SharedRef"))

	// The strict check rejects it before any row is processed.
	_, err = Parse(overlapping, Options{RequireDisjoint: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SharedRef")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "2026.1"
categories:
  bank: [BanksI]
  public: [PublicShareholdingI]
`), 0o644))

	table, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "2026.1", table.Version)
	assert.Equal(t, []string{"bank", "public"}, table.Names())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), Options{})
	assert.Error(t, err)
}
