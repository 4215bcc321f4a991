package models

// LookupMode selects which remote call family resolves a query.
type LookupMode int

const (
	ByKeyword LookupMode = iota
	ByProductID
)

func (m LookupMode) String() string {
	if m == ByProductID {
		return "product_id"
	}
	return "keyword"
}

// OutboundQuery is built once per inbound event and never mutated.
type OutboundQuery struct {
	Keyword     string
	LookupMode  LookupMode
	AffiliateID string
	CampaignID  string
}

// ResolutionResult is the resolver's answer for one keyword.
// Degraded is true when URL is a generic catalog search rather than an
// affiliate tracking link.
type ResolutionResult struct {
	URL         string `json:"url"`
	DisplayName string `json:"display_name,omitempty"`
	Degraded    bool   `json:"degraded"`
	Outcome     string `json:"outcome"`
}
