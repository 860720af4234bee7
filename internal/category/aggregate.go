package category

import (
	"github.com/nsedata/shp-cli/internal/model"
)

// Aggregate sums extracted facts into per-category totals. Every category in
// the table is present in the result, zero when nothing matched, so a filing
// with no facts for a category reads as an explicit 0.0 downstream.
//
// A context ref may belong to more than one category's alias set; a matching
// fact is added to every such category. This is a many-to-many join over the
// six sets, not a reverse lookup.
func Aggregate(facts []model.ShareholdingFact, table *Table) model.CategoryTotals {
	totals := make(model.CategoryTotals, len(table.Categories))
	for cat := range table.Categories {
		totals[cat] = 0.0
	}

	for _, fact := range facts {
		for cat := range table.Categories {
			if table.Contains(cat, fact.ContextRef) {
				totals[cat] += fact.Value
			}
		}
	}

	return totals
}
