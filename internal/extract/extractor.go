// Package extract heuristically parses unstructured recognized text into the
// canonical contact-record field set. Extraction is best-effort: a rule that
// finds nothing leaves its field empty, and no rule can fail the scan.
package extract

import (
	"regexp"
	"strings"

	"github.com/arbovm/levenshtein"

	"go-card-scanner/pkg/models"
)

var (
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	websiteRe = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s,]+`)

	// Region-biased phone patterns, tried in order: international prefix with
	// a 10-digit run, a mobile marker letter, a Tel: label, then a bare
	// international-prefixed group.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[\s\-]?\d{10}\b`),
		regexp.MustCompile(`(?i)\bM[:\s]\s*(\+?[\d][\d\s\-]{8,}\d)`),
		regexp.MustCompile(`(?i)\bTel[:.]?\s*(\+?[\d][\d\s\-()]{8,}\d)`),
		regexp.MustCompile(`\+?\d{2,3}[\s\-]\d{2,4}[\s\-]\d{6,8}\b`),
	}

	// Digit runs long enough to be phone-shaped; stripped before address
	// acceptance so phone digits never leak into the address string.
	phoneRunRe = regexp.MustCompile(`\+?\d[\d\s\-()]{8,}\d`)

	nameLineRe   = regexp.MustCompile(`^[A-Z][a-z]+(?:\s[A-Z][a-z]+){1,2}\.?$`)
	postalCodeRe = regexp.MustCompile(`(?:^|[^\d])(\d{6})(?:[^\d]|$)`)
	nonDigitRe   = regexp.MustCompile(`[^\d+]`)
)

// nameExclusions are tokens that mark a line as a company or title rather
// than a person's name. A closed, illustrative list; lookups are
// case-insensitive.
var nameExclusions = []string{
	"ltd", "limited", "inc", "llc", "corp", "corporation", "pvt", "gmbh",
	"technologies", "solutions", "systems", "industries", "enterprises",
	"group", "consulting", "services",
	"manager", "director", "engineer", "analyst", "consultant", "officer",
	"executive", "president", "founder", "developer", "designer", "architect",
	"road", "street", "avenue", "lane", "towers", "nagar", "colony",
}

// jobTitles is ordered longest-phrase-first so "Project Manager" wins over
// bare "Manager".
var jobTitles = []string{
	"Chief Executive Officer",
	"Chief Technology Officer",
	"Chief Financial Officer",
	"Chief Operating Officer",
	"Senior Software Engineer",
	"Principal Engineer",
	"Engineering Manager",
	"Managing Director",
	"General Manager",
	"Project Manager",
	"Product Manager",
	"Marketing Manager",
	"Business Analyst",
	"Data Analyst",
	"Software Engineer",
	"Sales Executive",
	"Account Executive",
	"Vice President",
	"Consultant",
	"Director",
	"Founder",
	"Designer",
	"Developer",
	"Engineer",
	"Manager",
	"Analyst",
	"CEO", "CTO", "CFO", "COO",
}

var companySuffixes = []string{
	"Ltd", "Limited", "Inc", "LLC", "Corp", "Corporation", "Pvt",
	"Technologies", "Solutions", "Systems", "Group", "Industries",
	"Enterprises", "GmbH",
}

var localitySuffixes = []string{
	"Road", "Street", "Avenue", "Lane", "Towers", "Nagar", "Colony",
	"Sector", "Block", "Layout", "Marg", "Cross", "Boulevard", "Drive",
}

var companyRe = buildSuffixPattern(companySuffixes)

func buildSuffixPattern(suffixes []string) *regexp.Regexp {
	return regexp.MustCompile(
		`\b([A-Z][A-Za-z&.]*(?:\s[A-Z][A-Za-z&.]*)*\s(?:` + strings.Join(suffixes, "|") + `))\.?\b`)
}

// Extract parses OCR text into a partial contact record. Steps are
// independent and order-stable; only the address step depends on phone
// stripping, which runs unconditionally.
func Extract(text string) models.ContactRecord {
	normalized := normalizeWhitespace(text)
	flat := strings.ReplaceAll(normalized, "\n", " ")

	record := models.ContactRecord{Provenance: models.ProvenanceText}
	record.Email = extractEmail(flat)
	record.Phone = extractPhone(flat)
	record.Website = extractWebsite(flat)
	record.Name = extractName(normalized)
	record.Title = extractTitle(flat)
	record.Company = extractCompany(flat)
	record.Address = extractAddress(normalized)

	if postal := extractPostalCode(flat); postal != "" {
		record.AddOtherInfo("Postal code: " + postal)
	}
	return record
}

// normalizeWhitespace collapses runs of spaces and tabs to single spaces
// while preserving line breaks, which the name and address rules need.
func normalizeWhitespace(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func extractEmail(text string) string {
	return emailRe.FindString(text)
}

func extractPhone(text string) string {
	for _, pattern := range phonePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		candidate := match[0]
		if len(match) > 1 && match[1] != "" {
			candidate = match[1]
		}
		cleaned := nonDigitRe.ReplaceAllString(candidate, "")
		digits := strings.TrimPrefix(cleaned, "+")
		if len(digits) >= 10 {
			return cleaned
		}
	}
	return ""
}

func extractWebsite(text string) string {
	match := websiteRe.FindString(text)
	return strings.TrimRight(match, ".,;")
}

// extractName accepts the first line shaped like a two- or three-word
// capitalized name that carries no company or title keyword. The exclusion
// list prevents titles and companies from being misread as personal names.
func extractName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !nameLineRe.MatchString(line) {
			continue
		}
		if containsExcludedToken(line) {
			continue
		}
		return strings.TrimSuffix(line, ".")
	}
	return ""
}

func containsExcludedToken(line string) bool {
	for _, token := range strings.Fields(strings.ToLower(line)) {
		token = strings.Trim(token, ".,")
		for _, excluded := range nameExclusions {
			if token == excluded {
				return true
			}
		}
	}
	return false
}

// extractTitle matches the closed job-title list, tolerating single-character
// OCR misreads in longer words via edit distance.
func extractTitle(text string) string {
	lower := strings.ToLower(text)
	for _, title := range jobTitles {
		if strings.Contains(lower, strings.ToLower(title)) {
			return title
		}
	}
	// Fuzzy pass for single-word titles long enough that one misread
	// character is still unambiguous.
	words := strings.Fields(lower)
	for _, title := range jobTitles {
		lowered := strings.ToLower(title)
		if strings.Contains(lowered, " ") || len(lowered) < 7 {
			continue
		}
		for _, word := range words {
			word = strings.Trim(word, ".,:;")
			if len(word) >= 5 && levenshtein.Distance(word, lowered) == 1 {
				return title
			}
		}
	}
	return ""
}

func extractCompany(text string) string {
	match := companyRe.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}

// extractAddress finds a capitalized phrase ending in a locality suffix.
// Phone-shaped digit runs are stripped from the candidate text first, so a
// number printed beside the street line cannot leak into the address.
func extractAddress(text string) string {
	cleaned := phoneRunRe.ReplaceAllString(text, " ")

	for _, line := range strings.Split(cleaned, "\n") {
		address := addressFromLine(strings.Join(strings.Fields(line), " "))
		if address != "" {
			return address
		}
	}
	return ""
}

func addressFromLine(line string) string {
	tokens := strings.Split(line, " ")
	suffixIdx := -1
	for i, token := range tokens {
		if isLocalitySuffix(strings.Trim(token, ".,")) {
			suffixIdx = i
			break
		}
	}
	if suffixIdx < 0 {
		return ""
	}

	// Walk left to the start of the capitalized phrase. Label tokens
	// ("Tel:") and stray single letters from stripped markers stop the walk.
	start := suffixIdx
	for start > 0 {
		prev := strings.Trim(tokens[start-1], ",")
		if prev == "" || len(prev) == 1 || strings.ContainsAny(prev, ":;") {
			break
		}
		first := rune(prev[0])
		if (first >= 'A' && first <= 'Z') || (first >= '0' && first <= '9') {
			start--
			continue
		}
		break
	}

	// Extend right across short connective tokens (No. 2, Phase II, a
	// trailing locality name) but stop before a standalone postal token.
	end := suffixIdx
	for end+1 < len(tokens) {
		next := strings.Trim(tokens[end+1], ",")
		if next == "" || len(next) > 12 {
			break
		}
		if postalCodeRe.MatchString(" " + next + " ") {
			break
		}
		if !isAddressToken(next) {
			break
		}
		end++
	}

	candidate := strings.Join(tokens[start:end+1], " ")
	candidate = strings.Trim(candidate, " ,")
	if candidate == "" {
		return ""
	}
	// Residual phone shapes disqualify nothing but are removed.
	candidate = strings.TrimSpace(phoneRunRe.ReplaceAllString(candidate, " "))
	return candidate
}

func isLocalitySuffix(token string) bool {
	for _, suffix := range localitySuffixes {
		if strings.EqualFold(token, suffix) {
			return true
		}
	}
	return false
}

func isAddressToken(token string) bool {
	trimmed := strings.Trim(token, ".,#")
	if trimmed == "" {
		return false
	}
	if isLocalitySuffix(trimmed) {
		return true
	}
	first := rune(trimmed[0])
	if first >= '0' && first <= '9' {
		return len(trimmed) <= 4
	}
	return first >= 'A' && first <= 'Z' || strings.EqualFold(trimmed, "no")
}

// extractPostalCode finds a standalone 6-digit token. Kept separate from the
// address because region-specific code placement is unreliable.
func extractPostalCode(text string) string {
	match := postalCodeRe.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}
