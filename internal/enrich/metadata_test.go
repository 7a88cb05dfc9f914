package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-card-scanner/pkg/models"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Acme Ltd — Industrial Supplies</title>
  <meta name="description" content="Acme makes everything.">
</head>
<body>
  <a href="mailto:sales@acme.com?subject=hi">Email us</a>
  <a href="tel:+15551234567">Call</a>
  <a href="https://www.linkedin.com/company/acme">LinkedIn</a>
  <a href="/about">About</a>
</body>
</html>`

func TestFetchParsesMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := NewHTTPMetadataFetcher(2 * time.Second)
	meta := fetcher.Fetch(context.Background(), server.URL)

	if !meta.Success {
		t.Fatalf("Fetch() success = false, error = %q", meta.Error)
	}
	if meta.Title != "Acme Ltd — Industrial Supplies" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Description != "Acme makes everything." {
		t.Errorf("description = %q", meta.Description)
	}
	if len(meta.ContactInfo.Emails) != 1 || meta.ContactInfo.Emails[0] != "sales@acme.com" {
		t.Errorf("emails = %v, want mailto parsed without query", meta.ContactInfo.Emails)
	}
	if len(meta.ContactInfo.Phones) != 1 || meta.ContactInfo.Phones[0] != "+15551234567" {
		t.Errorf("phones = %v", meta.ContactInfo.Phones)
	}
	if len(meta.SocialLinks) != 1 {
		t.Errorf("social links = %v, want the LinkedIn URL only", meta.SocialLinks)
	}
}

func TestFetchFailureReturnsUnsuccessful(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewHTTPMetadataFetcher(time.Second)
	meta := fetcher.Fetch(context.Background(), server.URL)

	if meta.Success {
		t.Fatal("Fetch() success = true on server error, want false")
	}
	if meta.Error == "" {
		t.Error("Fetch() error message empty, want reason")
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	fetcher := NewHTTPMetadataFetcher(200 * time.Millisecond)
	meta := fetcher.Fetch(context.Background(), "http://127.0.0.1:1")

	if meta.Success {
		t.Fatal("Fetch() success = true for unreachable host")
	}
}

// countingFetcher records concurrency and returns canned results.
type countingFetcher struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (c *countingFetcher) Fetch(ctx context.Context, pageURL string) models.PageMetadata {
	current := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		observed := c.maxInFlight.Load()
		if current <= observed || c.maxInFlight.CompareAndSwap(observed, current) {
			break
		}
	}
	time.Sleep(30 * time.Millisecond)
	return models.PageMetadata{URL: pageURL, Title: "title for " + pageURL, Success: true}
}

func TestEnrichAllRunsConcurrentlyWithDisjointSlots(t *testing.T) {
	fetcher := &countingFetcher{}
	urls := []string{"https://a.example", "https://b.example", "https://c.example", "https://a.example"}

	results := EnrichAll(context.Background(), fetcher, urls)

	if len(results) != 3 {
		t.Fatalf("EnrichAll() returned %d results, want 3 distinct", len(results))
	}
	for _, u := range urls {
		meta, ok := results[u]
		if !ok {
			t.Errorf("missing result slot for %s", u)
			continue
		}
		if meta.URL != u {
			t.Errorf("result keyed %s carries URL %s", u, meta.URL)
		}
	}
	if fetcher.maxInFlight.Load() < 2 {
		t.Errorf("max in-flight fetches = %d, want concurrent execution", fetcher.maxInFlight.Load())
	}
}

func TestEnrichAllEmptyInput(t *testing.T) {
	results := EnrichAll(context.Background(), &countingFetcher{}, nil)
	if results != nil {
		t.Errorf("EnrichAll(nil) = %v, want nil", results)
	}
}
