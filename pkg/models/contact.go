package models

import "fmt"

// Symbology identifies the machine-readable code family a payload came from.
type Symbology string

const (
	SymbologyQR    Symbology = "qr"
	SymbologyOther Symbology = "other"
)

// DetectionStrategy names the cascade step that produced a payload.
type DetectionStrategy string

const (
	StrategyLocal  DetectionStrategy = "local"
	StrategyRemote DetectionStrategy = "remote"
)

// StrategyLocalPreprocessed tags payloads decoded from a preprocessed
// rendering, keeping the transform kind for diagnostics.
func StrategyLocalPreprocessed(kind string) DetectionStrategy {
	return DetectionStrategy(fmt.Sprintf("local-preprocessed(%s)", kind))
}

// Point is a corner coordinate in source-image pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DecodedPayload is one raw string decoded from a machine-readable code.
// Immutable once created; identity for deduplication is the exact Data string.
type DecodedPayload struct {
	Data      string            `json:"data"`
	Symbology Symbology         `json:"symbology"`
	Geometry  []Point           `json:"geometry,omitempty"`
	Strategy  DetectionStrategy `json:"strategy"`
}

// ContentKind classifies a decoded payload.
type ContentKind string

const (
	ContentURL           ContentKind = "url"
	ContentEmail         ContentKind = "email"
	ContentPhone         ContentKind = "phone"
	ContentVCard         ContentKind = "vcard"
	ContentWiFi          ContentKind = "wifi"
	ContentSMS           ContentKind = "sms"
	ContentSocialProfile ContentKind = "socialProfile"
	ContentPlainText     ContentKind = "plainText"
)

// ContentRecord is the typed interpretation of one decoded payload.
type ContentRecord struct {
	Kind       ContentKind       `json:"kind"`
	Title      string            `json:"title"`
	Fields     map[string]string `json:"fields"`
	RawPayload string            `json:"raw_payload"`
}

// Provenance tags where a contact record's data originated.
type Provenance string

const (
	ProvenanceQR     Provenance = "qr"
	ProvenanceText   Provenance = "text"
	ProvenanceMerged Provenance = "merged"
)

// ContactRecord is the canonical merged output shape persisted by the
// surrounding application.
type ContactRecord struct {
	Name             string     `json:"name,omitempty"`
	Title            string     `json:"title,omitempty"`
	Company          string     `json:"company,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	Website          string     `json:"website,omitempty"`
	Address          string     `json:"address,omitempty"`
	OtherInfo        []string   `json:"other_info,omitempty"`
	SourceConfidence float64    `json:"source_confidence"`
	Provenance       Provenance `json:"provenance"`
}

// AddOtherInfo appends a side fact, keeping insertion order and dropping
// exact duplicates.
func (c *ContactRecord) AddOtherInfo(info string) {
	if info == "" {
		return
	}
	for _, existing := range c.OtherInfo {
		if existing == info {
			return
		}
	}
	c.OtherInfo = append(c.OtherInfo, info)
}

// IsEmpty reports whether no named field or side fact was populated.
func (c *ContactRecord) IsEmpty() bool {
	return c.Name == "" && c.Title == "" && c.Company == "" &&
		c.Phone == "" && c.Email == "" && c.Website == "" &&
		c.Address == "" && len(c.OtherInfo) == 0
}

// RecognizedText is the output of the text-recognition collaborator.
type RecognizedText struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// PageContactInfo holds contact details scraped from a webpage.
type PageContactInfo struct {
	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"`
	Names  []string `json:"names,omitempty"`
}

// PageMetadata is the result of enriching one URL payload. On failure
// Success is false and Error carries the reason; the scan itself proceeds.
type PageMetadata struct {
	URL         string          `json:"url"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	ContactInfo PageContactInfo `json:"contact_info"`
	SocialLinks []string        `json:"social_links,omitempty"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
}
