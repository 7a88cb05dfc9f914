// Package classify maps a raw decoded payload string to a typed content
// record. Rules are evaluated in a fixed priority order because payload
// shapes are not mutually exclusive by pattern alone: an SMS payload can
// contain a phone-shaped substring.
package classify

import (
	"regexp"
	"strings"

	"go-card-scanner/pkg/models"
)

// SocialDomains is the closed list of recognized social-profile hosts.
var SocialDomains = []string{
	"linkedin.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"github.com",
	"youtube.com",
	"t.me",
	"wa.me",
}

type rule struct {
	match func(string) bool
	build func(string) models.ContentRecord
}

// Rules run in order; first match wins. plainText is the catch-all, not an
// error.
var rules = []rule{
	{isVCard, buildVCard},
	{isWiFi, buildWiFi},
	{isSMS, buildSMS},
	{isURL, buildURL},
	{isEmail, buildEmail},
	{isPhone, buildPhone},
	{isSocialProfile, buildSocialProfile},
}

// Classify turns one payload into a content record. Pure; never fails.
func Classify(payload string) models.ContentRecord {
	trimmed := strings.TrimSpace(payload)
	for _, r := range rules {
		if r.match(trimmed) {
			return r.build(trimmed)
		}
	}
	return models.ContentRecord{
		Kind:       models.ContentPlainText,
		Title:      "Text",
		Fields:     map[string]string{"text": trimmed},
		RawPayload: payload,
	}
}

func isVCard(payload string) bool {
	return strings.HasPrefix(strings.ToUpper(payload), "BEGIN:VCARD")
}

// vCard structured keys mapped into contact-shaped fields. Unrecognized keys
// are dropped. A malformed vCard still yields whatever fields parse.
func buildVCard(payload string) models.ContentRecord {
	fields := map[string]string{}

	for _, line := range splitLines(payload) {
		key, value, ok := strings.Cut(line, ":")
		if !ok || value == "" {
			continue
		}
		// Strip property parameters, e.g. EMAIL;TYPE=WORK.
		if idx := strings.Index(key, ";"); idx >= 0 {
			key = key[:idx]
		}

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "FN":
			setIfEmpty(fields, "name", value)
		case "N":
			// Family;Given;... — only used when no formatted name exists.
			if fields["name"] == "" {
				parts := strings.Split(value, ";")
				reversed := make([]string, 0, len(parts))
				for i := len(parts) - 1; i >= 0; i-- {
					if p := strings.TrimSpace(parts[i]); p != "" {
						reversed = append(reversed, p)
					}
				}
				setIfEmpty(fields, "name", strings.Join(reversed, " "))
			}
		case "ORG":
			setIfEmpty(fields, "company", strings.ReplaceAll(value, ";", " "))
		case "TITLE":
			setIfEmpty(fields, "title", value)
		case "EMAIL":
			setIfEmpty(fields, "email", value)
		case "TEL":
			setIfEmpty(fields, "phone", value)
		case "URL":
			setIfEmpty(fields, "website", value)
		case "ADR":
			parts := strings.Split(value, ";")
			kept := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					kept = append(kept, p)
				}
			}
			setIfEmpty(fields, "address", strings.Join(kept, ", "))
		}
	}

	return models.ContentRecord{
		Kind:       models.ContentVCard,
		Title:      "Business Card",
		Fields:     fields,
		RawPayload: payload,
	}
}

func isWiFi(payload string) bool {
	return strings.HasPrefix(strings.ToUpper(payload), "WIFI:")
}

func buildWiFi(payload string) models.ContentRecord {
	fields := map[string]string{}
	body := payload[len("WIFI:"):]

	for _, segment := range strings.Split(body, ";") {
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "S":
			fields["ssid"] = value
		case "P":
			fields["password"] = value
		case "T":
			fields["security"] = value
		case "H":
			fields["hidden"] = value
		}
	}

	return models.ContentRecord{
		Kind:       models.ContentWiFi,
		Title:      "WiFi Network",
		Fields:     fields,
		RawPayload: payload,
	}
}

func isSMS(payload string) bool {
	upper := strings.ToUpper(payload)
	return strings.HasPrefix(upper, "SMSTO:") || strings.HasPrefix(upper, "SMS:")
}

func buildSMS(payload string) models.ContentRecord {
	fields := map[string]string{}
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) >= 3 {
		fields["number"] = parts[1]
		fields["body"] = parts[2]
	} else {
		fields["raw"] = payload
	}

	return models.ContentRecord{
		Kind:       models.ContentSMS,
		Title:      "SMS",
		Fields:     fields,
		RawPayload: payload,
	}
}

func isURL(payload string) bool {
	lower := strings.ToLower(payload)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.")
}

func buildURL(payload string) models.ContentRecord {
	return models.ContentRecord{
		Kind:       models.ContentURL,
		Title:      "Website",
		Fields:     map[string]string{"url": payload},
		RawPayload: payload,
	}
}

// isEmail is a display hint, not a validator: false positives are acceptable.
func isEmail(payload string) bool {
	at := strings.Index(payload, "@")
	if at <= 0 {
		return false
	}
	return strings.Contains(payload[at:], ".") && !strings.ContainsAny(payload, " \t\n")
}

func buildEmail(payload string) models.ContentRecord {
	address := payload
	if strings.HasPrefix(strings.ToLower(address), "mailto:") {
		address = address[len("mailto:"):]
	}
	return models.ContentRecord{
		Kind:       models.ContentEmail,
		Title:      "Email Address",
		Fields:     map[string]string{"email": address},
		RawPayload: payload,
	}
}

var phoneSeparators = regexp.MustCompile(`[\s().\-]`)

func isPhone(payload string) bool {
	stripped := phoneSeparators.ReplaceAllString(strings.TrimPrefix(payload, "tel:"), "")
	stripped = strings.TrimPrefix(stripped, "+")
	if len(stripped) < 10 {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func buildPhone(payload string) models.ContentRecord {
	return models.ContentRecord{
		Kind:       models.ContentPhone,
		Title:      "Phone Number",
		Fields:     map[string]string{"phone": strings.TrimPrefix(payload, "tel:")},
		RawPayload: payload,
	}
}

func isSocialProfile(payload string) bool {
	lower := strings.ToLower(payload)
	for _, domain := range SocialDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

func buildSocialProfile(payload string) models.ContentRecord {
	lower := strings.ToLower(payload)
	title := "Social Profile"
	for _, domain := range SocialDomains {
		if strings.Contains(lower, domain) {
			label, _, _ := strings.Cut(domain, ".")
			title = strings.ToUpper(label[:1]) + label[1:]
			break
		}
	}

	return models.ContentRecord{
		Kind:       models.ContentSocialProfile,
		Title:      title,
		Fields:     map[string]string{"profile": payload},
		RawPayload: payload,
	}
}

func setIfEmpty(fields map[string]string, key, value string) {
	if fields[key] == "" {
		fields[key] = strings.TrimSpace(value)
	}
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
