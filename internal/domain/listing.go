package domain

// Listing represents one parsed search-result entry before scoring.
// Listings are ephemeral: they exist only for the duration of a lookup.
type Listing struct {
	ASIN  string `json:"asin"`
	Title string `json:"title"`
	// Prices maps a binding label found within the listing node to the price
	// text of its link. The text may be empty when the binding link exists
	// but its price could not be located.
	Prices      map[string]string `json:"prices,omitempty"`
	ImageSource string            `json:"imageSource,omitempty"`
	Sponsored   bool              `json:"sponsored"`
}

// MatchedResult is the final output of a price lookup. Every field is always
// present in the serialized form, null when unresolved.
type MatchedResult struct {
	ResultTitle  string   `json:"resultTitle"`
	MatchScore   float64  `json:"matchScore"`
	PriceText    *string  `json:"priceText"`
	PriceValue   *float64 `json:"priceValue"`
	Currency     *string  `json:"currency"`
	PriceBinding *string  `json:"priceBinding"`
	PriceError   *string  `json:"priceError"`
	ProductURL   string   `json:"productUrl"`
	ImageURL     *string  `json:"imageUrl"`
}
