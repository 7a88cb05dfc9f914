// Package merge combines classified code content with heuristically
// extracted text fields into one contact record.
package merge

import (
	"fmt"

	"go-card-scanner/pkg/models"
)

// vCard field keys in their contact-record order, used both for mapping the
// primary vCard and for collecting later vCards' side facts.
var vcardFieldKeys = []string{"name", "title", "company", "phone", "email", "website", "address"}

// Merge applies the precedence rule: a structured source (vCard) wins over
// the heuristic extractor for any field both provide, because structured
// encoding is authoritative; fields the vCard leaves empty fall back to the
// extractor. Non-vCard records contribute labeled side facts only — a bare
// phone- or URL-shaped code on a card carries no semantic labeling.
func Merge(records []models.ContentRecord, extracted models.ContactRecord) models.ContactRecord {
	contact := models.ContactRecord{}

	var primary *models.ContentRecord
	qrContributed := false

	for i := range records {
		record := records[i]
		switch {
		case record.Kind == models.ContentVCard && primary == nil:
			primary = &records[i]
			applyVCard(&contact, record)
			qrContributed = true
		case record.Kind == models.ContentVCard:
			// Later vCards: non-conflicting fields are appended as side
			// facts rather than silently dropped.
			appendSecondaryVCard(&contact, record)
		default:
			if fact := supplementaryFact(record); fact != "" {
				contact.AddOtherInfo(fact)
				qrContributed = true
			}
		}
	}

	textContributed := fillFromExtractor(&contact, extracted)
	for _, info := range extracted.OtherInfo {
		contact.AddOtherInfo(info)
	}

	switch {
	case qrContributed && textContributed:
		contact.Provenance = models.ProvenanceMerged
	case qrContributed:
		contact.Provenance = models.ProvenanceQR
	default:
		contact.Provenance = models.ProvenanceText
	}
	return contact
}

func applyVCard(contact *models.ContactRecord, record models.ContentRecord) {
	contact.Name = record.Fields["name"]
	contact.Title = record.Fields["title"]
	contact.Company = record.Fields["company"]
	contact.Phone = record.Fields["phone"]
	contact.Email = record.Fields["email"]
	contact.Website = record.Fields["website"]
	contact.Address = record.Fields["address"]
}

func appendSecondaryVCard(contact *models.ContactRecord, record models.ContentRecord) {
	for _, key := range vcardFieldKeys {
		value := record.Fields[key]
		if value == "" || value == *fieldSlot(contact, key) {
			continue
		}
		contact.AddOtherInfo(fmt.Sprintf("Alternate %s: %s", key, value))
	}
}

// fillFromExtractor copies extractor values into any field the structured
// source left empty, reporting whether anything was taken.
func fillFromExtractor(contact *models.ContactRecord, extracted models.ContactRecord) bool {
	contributed := false
	for _, key := range vcardFieldKeys {
		slot := fieldSlot(contact, key)
		if *slot != "" {
			continue
		}
		if value := *fieldSlot(&extracted, key); value != "" {
			*slot = value
			contributed = true
		}
	}
	return contributed
}

func fieldSlot(contact *models.ContactRecord, key string) *string {
	switch key {
	case "name":
		return &contact.Name
	case "title":
		return &contact.Title
	case "company":
		return &contact.Company
	case "phone":
		return &contact.Phone
	case "email":
		return &contact.Email
	case "website":
		return &contact.Website
	case "address":
		return &contact.Address
	}
	panic("unknown contact field: " + key)
}

// supplementaryFact renders a non-vCard content record as one labeled side
// fact for the merged record.
func supplementaryFact(record models.ContentRecord) string {
	switch record.Kind {
	case models.ContentURL:
		return "Website: " + record.Fields["url"]
	case models.ContentEmail:
		return "Email: " + record.Fields["email"]
	case models.ContentPhone:
		return "Phone: " + record.Fields["phone"]
	case models.ContentWiFi:
		if ssid := record.Fields["ssid"]; ssid != "" {
			return "WiFi network: " + ssid
		}
	case models.ContentSMS:
		if number := record.Fields["number"]; number != "" {
			return "SMS number: " + number
		}
		return "SMS: " + record.Fields["raw"]
	case models.ContentSocialProfile:
		return record.Title + ": " + record.Fields["profile"]
	case models.ContentPlainText:
		if text := record.Fields["text"]; text != "" {
			return "Note: " + text
		}
	}
	return ""
}
