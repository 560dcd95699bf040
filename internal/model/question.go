package model

import "strings"

// Question is a single free-text user question. It has no identity beyond
// its content and is never persisted.
type Question struct {
	Text string `json:"text"`
}

// Category is the coarse topic bucket assigned to a question. It decides
// which sheet is consulted and which retrieval path runs.
type Category string

const (
	// CategoryGeneral routes to the company-information sheet as raw text.
	CategoryGeneral Category = "general"
	// CategoryProduct routes to the product catalog and the ranker.
	CategoryProduct Category = "product"
	// CategoryUnknown means the classifier could not produce a usable label.
	CategoryUnknown Category = "unknown"
)

// ParseCategory maps a raw classifier completion to a Category. The label is
// trimmed, lower-cased and stripped of trailing punctuation before matching;
// anything that is not exactly "general" or "product" becomes CategoryUnknown.
func ParseCategory(raw string) Category {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.TrimRight(label, ".,!?:;")

	switch Category(label) {
	case CategoryGeneral:
		return CategoryGeneral
	case CategoryProduct:
		return CategoryProduct
	default:
		return CategoryUnknown
	}
}
