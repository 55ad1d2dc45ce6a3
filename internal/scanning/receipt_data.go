package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ReceiptData is the rich schema the model is asked to produce.
// Every field is optional; the model is not trusted to fill any of them.
type ReceiptData struct {
	Metadata     Metadata     `json:"receipt_metadata"`
	Items        []Item       `json:"items"`
	Financial    Financial    `json:"financial"`
	SpecialNotes SpecialNotes `json:"special_notes"`
	Analytics    Analytics    `json:"analytics"`
}

// Metadata identifies the store and the moment of purchase
type Metadata struct {
	StoreName     *string   `json:"store_name"`
	StoreChain    *string   `json:"store_chain"`
	StoreLocation *Location `json:"store_location"`
	ReceiptNumber *string   `json:"receipt_number"`
	Date          *string   `json:"date"` // YYYY-MM-DD
	Time          *string   `json:"time"` // HH:MM:SS
	Currency      *string   `json:"currency"`
}

// Location is the store address block
type Location struct {
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// Item is a single receipt line
type Item struct {
	LineNumber     Amount   `json:"line_number"`
	RawText        *string  `json:"raw_text"`
	Name           string   `json:"name"`
	Brand          *string  `json:"brand"`
	ProductType    *string  `json:"product_type"`
	Quantity       Amount   `json:"quantity"`
	UnitPrice      Amount   `json:"unit_price"`
	TotalPrice     Amount   `json:"total_price"`
	Discount       Amount   `json:"discount"`
	OriginalPrice  Amount   `json:"original_price"`
	Category       *string  `json:"category"`
	Subcategory    *string  `json:"subcategory"`
	SubSubcategory *string  `json:"sub_subcategory"`
	Tags           []string `json:"tags"`
	UnitOfMeasure  *string  `json:"unit_of_measure"`
	PackageSize    *string  `json:"package_size"`
	IsOnSale       *bool    `json:"is_on_sale"`
	ReturnEligible *bool    `json:"return_eligible"`
}

// Financial is the money breakdown at the bottom of the receipt, in SEK
type Financial struct {
	Subtotal            Amount `json:"subtotal"`
	TotalDiscounts      Amount `json:"total_discounts"`
	Total               Amount `json:"total"`
	AmountPaid          Amount `json:"amount_paid"`
	Change              Amount `json:"change"`
	LoyaltyPointsEarned Amount `json:"loyalty_points_earned"`
	LoyaltyPointsUsed   Amount `json:"loyalty_points_used"`
}

// SpecialNotes collects promotions, coupons and loyalty details
type SpecialNotes struct {
	Promotions        []string `json:"promotions"`
	CouponsUsed       []string `json:"coupons_used"`
	ReturnPolicy      *string  `json:"return_policy"`
	LoyaltyCardNumber *string  `json:"loyalty_card_number"`
	CampaignCodes     []string `json:"campaign_codes"`
}

// Analytics holds model-derived facts about the purchase
type Analytics struct {
	ItemsCount *Amount `json:"items_count,omitempty"`
	TimeOfDay  *string `json:"time_of_day,omitempty"`
	DayOfWeek  *string `json:"day_of_week,omitempty"`
}

// Amount is a number the model may also send as a string or null
type Amount float64

// UnmarshalJSON accepts 12.5, "12.50", "12,50 kr", "kr 1.234,50" and null
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}

	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = normalizeAmount(s)
		if s == "" {
			*a = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s", string(b))
	}
	*a = Amount(f)
	return nil
}

var currencyMarks = []string{"sek", "kr"}

// normalizeAmount strips currency marks and grouping from a Swedish or English
// formatted number. The last of "." and "," is the decimal separator.
func normalizeAmount(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	for _, mark := range currencyMarks {
		if len(s) >= len(mark) && strings.EqualFold(s[:len(mark)], mark) {
			s = s[len(mark):]
		}
		if len(s) >= len(mark) && strings.EqualFold(s[len(s)-len(mark):], mark) {
			s = s[:len(s)-len(mark)]
		}
	}
	s = strings.TrimSuffix(s, ":-")

	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && dot < comma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}
