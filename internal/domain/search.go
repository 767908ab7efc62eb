package domain

// SearchContext is the validated, normalized description of the book being
// sought. It is built once per request and never mutated afterwards.
type SearchContext struct {
	Domain string `json:"domain"`
	Host   string `json:"host"`

	// Title is the raw (trimmed, length-capped) series title from the query.
	Title string `json:"title"`
	// ExpectedTitle is the verbose string whose tokens drive scoring.
	ExpectedTitle string `json:"expectedTitle"`
	// RequiredTitle is the minimal string whose tokens must all appear in a
	// candidate title for it to be eligible at all.
	RequiredTitle string `json:"requiredTitle"`

	Format string `json:"format,omitempty"` // e.g. "Manga", "Light Novel"

	// BindingLabel is the preferred binding; BindingLabels is the ordered
	// fallback chain tried when resolving a price and always contains at
	// least BindingLabel.
	BindingLabel  string   `json:"bindingLabel"`
	BindingLabels []string `json:"bindingLabels"`

	FallbackToKindle bool `json:"fallbackToKindle"`

	// VolumeNumber is only meaningful when HasVolume is set; a volume query
	// parameter that fails to parse degrades to "no specific volume".
	VolumeNumber int  `json:"volumeNumber,omitempty"`
	HasVolume    bool `json:"hasVolume"`

	VolumeTitle    string `json:"volumeTitle,omitempty"`
	VolumeSubtitle string `json:"volumeSubtitle,omitempty"`

	// SearchURL is the constructed storefront query URL, kept for
	// traceability; the engine itself never fetches it.
	SearchURL string `json:"searchUrl"`
}
