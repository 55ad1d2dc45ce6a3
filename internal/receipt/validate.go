package receipt

import (
	"fmt"
	"math"
	"strings"
)

// Issue types reported by Validate
const (
	IssueNoItems           = "no_items"
	IssueSumMismatch       = "sum_mismatch"
	IssueManyUncategorized = "many_uncategorized"
	IssueMissingStore      = "missing_store"
	IssueMissingDate       = "missing_date"
)

// Issue is a single validation error or warning
type Issue struct {
	Type       string   `json:"type"`
	Message    string   `json:"message"`
	Difference string   `json:"difference,omitempty"`
	Items      []string `json:"items,omitempty"`
}

// Validation is the diagnostic annotation attached to a Receipt.
// Summary fields are absent when the receipt has no items.
type Validation struct {
	IsValid       bool    `json:"isValid"`
	Errors        []Issue `json:"errors"`
	Warnings      []Issue `json:"warnings"`
	ItemsSum      string  `json:"itemsSum,omitempty"`
	Total         string  `json:"total,omitempty"`
	Categorized   *int    `json:"categorized,omitempty"`
	Uncategorized *int    `json:"uncategorized,omitempty"`
}

// HasWarning reports whether a warning of the given type was emitted
func (v Validation) HasWarning(issueType string) bool {
	for _, w := range v.Warnings {
		if w.Type == issueType {
			return true
		}
	}
	return false
}

// Validator holds the thresholds for receipt sanity checks
type Validator struct {
	// SumTolerance is the largest items-sum vs total gap, in SEK, that is not reported
	SumTolerance float64
	// UncategorizedRatio is the share of "Other" items above which a warning is emitted
	UncategorizedRatio float64
}

// DefaultValidator tolerates 2 SEK of rounding and 30% uncategorized items
var DefaultValidator = Validator{
	SumTolerance:       2,
	UncategorizedRatio: 0.3,
}

// Validate runs DefaultValidator
func Validate(r *Receipt) Validation {
	return DefaultValidator.Validate(r)
}

// Validate checks a receipt without modifying it
func (v Validator) Validate(r *Receipt) Validation {
	result := Validation{
		Errors:   []Issue{},
		Warnings: []Issue{},
	}

	if len(r.Items) == 0 {
		result.Errors = append(result.Errors, Issue{
			Type:    IssueNoItems,
			Message: "No items found on receipt",
		})
		return result
	}

	var itemsSum float64
	for _, item := range r.Items {
		itemsSum += item.Price
	}

	// Compared in whole öre
	if diff := math.Abs(itemsSum - r.Total); math.Round(diff*100) > math.Round(v.SumTolerance*100) {
		result.Warnings = append(result.Warnings, Issue{
			Type:       IssueSumMismatch,
			Message:    fmt.Sprintf("Items sum (%.2f kr) doesn't match total (%.2f kr)", itemsSum, r.Total),
			Difference: fmt.Sprintf("%.2f", diff),
		})
	}

	uncategorized := make([]string, 0)
	for _, item := range r.Items {
		if item.Category == "" || item.Category == defaultCategory {
			uncategorized = append(uncategorized, item.Name)
		}
	}

	if float64(len(uncategorized)) > float64(len(r.Items))*v.UncategorizedRatio {
		result.Warnings = append(result.Warnings, Issue{
			Type:    IssueManyUncategorized,
			Message: fmt.Sprintf("%d items could not be categorized", len(uncategorized)),
			Items:   uncategorized,
		})
	}

	if isBlank(r.Store) {
		result.Warnings = append(result.Warnings, Issue{
			Type:    IssueMissingStore,
			Message: "Store name not found on receipt",
		})
	}

	if isBlank(r.Date) {
		result.Warnings = append(result.Warnings, Issue{
			Type:    IssueMissingDate,
			Message: "Receipt date not found",
		})
	}

	categorized := len(r.Items) - len(uncategorized)
	uncategorizedCount := len(uncategorized)

	result.IsValid = len(result.Errors) == 0
	result.ItemsSum = fmt.Sprintf("%.2f", itemsSum)
	result.Total = fmt.Sprintf("%.2f", r.Total)
	result.Categorized = &categorized
	result.Uncategorized = &uncategorizedCount

	return result
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
