// Package model holds the domain types shared across the scraper pipeline.
package model

// OutcomeStatus represents the terminal state of one row's pipeline.
type OutcomeStatus string

const (
	StatusSuccess   OutcomeStatus = "success"
	StatusError     OutcomeStatus = "error"
	StatusCancelled OutcomeStatus = "cancelled"
)

// DisclosureRow is one entry of the input table: a listed entity and the URL
// of its shareholding-pattern XBRL filing, plus metadata carried through to
// the output unchanged.
type DisclosureRow struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name,omitempty"`
	XBRLURL       string `json:"xbrl"`
	Date          string `json:"date,omitempty"`
	BroadcastDate string `json:"broadcast_date,omitempty"`

	// Reference percentages published alongside the filing, kept as-is for
	// cross-checking against the aggregated totals.
	PromoterPct string `json:"pr_and_prgrp,omitempty"`
	PublicPct   string `json:"public_val,omitempty"`
}

// ShareholdingFact is one percentage-of-shares element extracted from a
// filing, paired with the context reference that scopes it.
type ShareholdingFact struct {
	ContextRef string
	Value      float64
}

// CategoryTotals maps category name to the summed percentage for one filing.
// Every known category is present, zero when no element matched.
type CategoryTotals map[string]float64

// RowOutcome is the result of running the pipeline for one DisclosureRow.
// Exactly one is produced per input row regardless of success or failure.
type RowOutcome struct {
	Row    DisclosureRow  `json:"row"`
	Status OutcomeStatus  `json:"status"`
	Totals CategoryTotals `json:"totals,omitempty"`
	Err    string         `json:"error,omitempty"`
}
