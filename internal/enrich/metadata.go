// Package enrich fetches webpage metadata for URL payloads decoded from a
// card. Enrichment is strictly additive: failures never affect the scan.
package enrich

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"go-card-scanner/internal/classify"
	"go-card-scanner/internal/logger"
	"go-card-scanner/pkg/models"
)

// MetadataFetcher is the webpage-metadata collaborator.
type MetadataFetcher interface {
	Fetch(ctx context.Context, pageURL string) models.PageMetadata
}

// HTTPMetadataFetcher scrapes title, description, contact details, and
// social links from a page.
type HTTPMetadataFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPMetadataFetcher creates a fetcher with a per-call timeout budget.
func NewHTTPMetadataFetcher(timeout time.Duration) *HTTPMetadataFetcher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPMetadataFetcher{
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
	}
}

// Fetch returns page metadata; on any failure Success is false and Error
// carries the reason.
func (f *HTTPMetadataFetcher) Fetch(ctx context.Context, pageURL string) models.PageMetadata {
	meta := models.PageMetadata{URL: pageURL}

	normalized := pageURL
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		meta.Error = err.Error()
		return meta
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "Go-Card-Scanner/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		meta.Error = err.Error()
		return meta
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		meta.Error = resp.Status
		return meta
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		meta.Error = err.Error()
		return meta
	}

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && meta.Title == "" {
		meta.Title = strings.TrimSpace(og)
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta.Description = strings.TrimSpace(desc)
	}
	if meta.Description == "" {
		if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			meta.Description = strings.TrimSpace(og)
		}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		switch {
		case strings.HasPrefix(href, "mailto:"):
			addEmail(&meta.ContactInfo, strings.TrimPrefix(href, "mailto:"))
		case strings.HasPrefix(href, "tel:"):
			addPhone(&meta.ContactInfo, strings.TrimPrefix(href, "tel:"))
		case isSocialLink(href):
			addSocialLink(&meta, href)
		}
	})

	meta.Success = true
	return meta
}

// EnrichAll fetches metadata for every distinct URL concurrently, each call
// under its own timeout. Results land in disjoint slots keyed by the source
// URL string; no shared mutable state crosses the calls.
func EnrichAll(ctx context.Context, fetcher MetadataFetcher, urls []string) map[string]models.PageMetadata {
	distinct := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		distinct = append(distinct, u)
	}
	if len(distinct) == 0 {
		return nil
	}

	slots := make([]models.PageMetadata, len(distinct))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, pageURL := range distinct {
		i, pageURL := i, pageURL
		group.Go(func() error {
			slots[i] = fetcher.Fetch(groupCtx, pageURL)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.WithError(err).Warn("metadata enrichment group failed")
	}

	results := make(map[string]models.PageMetadata, len(distinct))
	for i, pageURL := range distinct {
		results[pageURL] = slots[i]
	}
	return results
}

func isSocialLink(href string) bool {
	parsed, err := url.Parse(href)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	for _, domain := range classify.SocialDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func addEmail(info *models.PageContactInfo, email string) {
	email = strings.TrimSpace(strings.SplitN(email, "?", 2)[0])
	if email == "" {
		return
	}
	for _, existing := range info.Emails {
		if existing == email {
			return
		}
	}
	info.Emails = append(info.Emails, email)
}

func addPhone(info *models.PageContactInfo, phone string) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return
	}
	for _, existing := range info.Phones {
		if existing == phone {
			return
		}
	}
	info.Phones = append(info.Phones, phone)
}

func addSocialLink(meta *models.PageMetadata, link string) {
	for _, existing := range meta.SocialLinks {
		if existing == link {
			return
		}
	}
	meta.SocialLinks = append(meta.SocialLinks, link)
}
