package receipt

import (
	"strings"

	"github.com/zombor/spendy/internal/scanning"
)

const (
	defaultCategory = "Other"
	defaultCurrency = "SEK"
)

// Normalize maps the model's nested schema onto a Receipt.
// Absent fields get neutral defaults; nothing present is overwritten.
func Normalize(data *scanning.ReceiptData) *Receipt {
	if data == nil {
		data = &scanning.ReceiptData{}
	}
	meta := data.Metadata
	fin := data.Financial

	r := &Receipt{
		Store: nullable(meta.StoreName),
		Date:  nullable(meta.Date),
		Time:  nullable(meta.Time),
		Total: float64(fin.Total),
		Items: make([]Item, 0, len(data.Items)),

		Metadata: Metadata{
			StoreName:     meta.StoreName,
			StoreChain:    meta.StoreChain,
			ReceiptNumber: meta.ReceiptNumber,
			PurchaseDate:  meta.Date,
			PurchaseTime:  meta.Time,
			Currency:      orDefault(meta.Currency, defaultCurrency),
		},
		ItemsDetailed: make([]DetailedItem, 0, len(data.Items)),
		Financial: Financial{
			Subtotal:            float64(fin.Subtotal),
			TotalDiscounts:      float64(fin.TotalDiscounts),
			Total:               float64(fin.Total),
			AmountPaid:          float64(fin.AmountPaid),
			Change:              float64(fin.Change),
			LoyaltyPointsEarned: float64(fin.LoyaltyPointsEarned),
			LoyaltyPointsUsed:   float64(fin.LoyaltyPointsUsed),
		},
		SpecialNotes: SpecialNotes{
			Promotions:        orEmpty(data.SpecialNotes.Promotions),
			CouponsUsed:       orEmpty(data.SpecialNotes.CouponsUsed),
			ReturnPolicy:      data.SpecialNotes.ReturnPolicy,
			LoyaltyCardNumber: data.SpecialNotes.LoyaltyCardNumber,
			CampaignCodes:     orEmpty(data.SpecialNotes.CampaignCodes),
		},
		Analytics: data.Analytics,
	}
	if meta.StoreLocation != nil {
		r.Metadata.StoreLocation = *meta.StoreLocation
	}

	for i, item := range data.Items {
		category := orDefault(item.Category, defaultCategory)

		r.Items = append(r.Items, Item{
			Name:        item.Name,
			Price:       float64(item.TotalPrice),
			Category:    category,
			Subcategory: nullable(item.Subcategory),
		})

		lineNumber := int(item.LineNumber)
		if lineNumber == 0 {
			lineNumber = i + 1
		}

		r.ItemsDetailed = append(r.ItemsDetailed, DetailedItem{
			LineNumber:     lineNumber,
			RawText:        item.RawText,
			Name:           item.Name,
			Brand:          item.Brand,
			ProductType:    item.ProductType,
			Quantity:       firstNonZero(item.Quantity, 1),
			UnitPrice:      firstNonZero(item.UnitPrice, item.TotalPrice),
			TotalPrice:     float64(item.TotalPrice),
			Discount:       float64(item.Discount),
			OriginalPrice:  firstNonZero(item.OriginalPrice, item.TotalPrice),
			Category:       category,
			Subcategory:    item.Subcategory,
			SubSubcategory: item.SubSubcategory,
			Tags:           orEmpty(item.Tags),
			UnitOfMeasure:  item.UnitOfMeasure,
			PackageSize:    item.PackageSize,
			IsOnSale:       item.IsOnSale != nil && *item.IsOnSale,
			ReturnEligible: item.ReturnEligible == nil || *item.ReturnEligible,
		})
	}

	return r
}

// nullable treats a missing or blank string as null
func nullable(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func firstNonZero(values ...scanning.Amount) float64 {
	for _, v := range values {
		if v != 0 {
			return float64(v)
		}
	}
	return 0
}
