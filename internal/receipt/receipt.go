package receipt

import "github.com/zombor/spendy/internal/scanning"

// Receipt is the normalized extraction result.
// The un-prefixed fields are the flat schema older clients read;
// the underscore-prefixed blocks carry the full detail.
type Receipt struct {
	Store *string `json:"store"`
	Date  *string `json:"date"` // YYYY-MM-DD
	Time  *string `json:"time"`
	Total float64 `json:"total"` // SEK
	Items []Item  `json:"items"`

	Metadata      Metadata           `json:"_metadata"`
	ItemsDetailed []DetailedItem     `json:"_items_detailed"`
	Financial     Financial          `json:"_financial"`
	SpecialNotes  SpecialNotes       `json:"_special_notes"`
	Analytics     scanning.Analytics `json:"_analytics"`

	Validation *Validation `json:"_validation,omitempty"`
}

// Item is a receipt line in the flat schema
type Item struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"` // SEK
	Category    string  `json:"category"`
	Subcategory *string `json:"subcategory"`
}

// Metadata describes the store and purchase moment
type Metadata struct {
	StoreName     *string           `json:"store_name"`
	StoreChain    *string           `json:"store_chain"`
	StoreLocation scanning.Location `json:"store_location"`
	ReceiptNumber *string           `json:"receipt_number"`
	PurchaseDate  *string           `json:"purchase_date"`
	PurchaseTime  *string           `json:"purchase_time"`
	Currency      string            `json:"currency"`
}

// DetailedItem is a receipt line with every field the model can extract
type DetailedItem struct {
	LineNumber     int      `json:"line_number"`
	RawText        *string  `json:"raw_text"`
	Name           string   `json:"name"`
	Brand          *string  `json:"brand"`
	ProductType    *string  `json:"product_type"`
	Quantity       float64  `json:"quantity"`
	UnitPrice      float64  `json:"unit_price"`
	TotalPrice     float64  `json:"total_price"`
	Discount       float64  `json:"discount"`
	OriginalPrice  float64  `json:"original_price"`
	Category       string   `json:"category"`
	Subcategory    *string  `json:"subcategory"`
	SubSubcategory *string  `json:"sub_subcategory"`
	Tags           []string `json:"tags"`
	UnitOfMeasure  *string  `json:"unit_of_measure"`
	PackageSize    *string  `json:"package_size"`
	IsOnSale       bool     `json:"is_on_sale"`
	ReturnEligible bool     `json:"return_eligible"`
}

// Financial is the money breakdown; absent figures are 0
type Financial struct {
	Subtotal            float64 `json:"subtotal"`
	TotalDiscounts      float64 `json:"total_discounts"`
	Total               float64 `json:"total"`
	AmountPaid          float64 `json:"amount_paid"`
	Change              float64 `json:"change"`
	LoyaltyPointsEarned float64 `json:"loyalty_points_earned"`
	LoyaltyPointsUsed   float64 `json:"loyalty_points_used"`
}

// SpecialNotes holds promotions, coupons and loyalty details
type SpecialNotes struct {
	Promotions        []string `json:"promotions"`
	CouponsUsed       []string `json:"coupons_used"`
	ReturnPolicy      *string  `json:"return_policy,omitempty"`
	LoyaltyCardNumber *string  `json:"loyalty_card_number,omitempty"`
	CampaignCodes     []string `json:"campaign_codes"`
}

// FlatReceipt is the legacy response shape: store, date, items and total only
type FlatReceipt struct {
	Store *string `json:"store"`
	Date  *string `json:"date"`
	Items []Item  `json:"items"`
	Total float64 `json:"total"`
}

// Flat projects the receipt onto the legacy response shape
func (r *Receipt) Flat() FlatReceipt {
	return FlatReceipt{
		Store: r.Store,
		Date:  r.Date,
		Items: r.Items,
		Total: r.Total,
	}
}
