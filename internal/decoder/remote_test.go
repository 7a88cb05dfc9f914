package decoder

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestRemoteDecoderParsesSymbols(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart upload, got parse error: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"type":"qrcode","symbol":[{"seq":0,"data":"https://example.com","error":null},{"seq":1,"data":null,"error":"decode error"}]}]`))
	}))
	defer server.Close()

	d := NewRemoteDecoder(server.URL, 5*time.Second)
	payloads, err := d.Decode(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("Decode() returned %d payloads, want 1", len(payloads))
	}
	if payloads[0].Data != "https://example.com" {
		t.Errorf("payload data = %q, want %q", payloads[0].Data, "https://example.com")
	}
	if payloads[0].Symbology != "qr" {
		t.Errorf("payload symbology = %q, want qr", payloads[0].Symbology)
	}
}

func TestRemoteDecoderAbsorbsFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"not":"a list"`))
			},
		},
		{
			name: "empty symbol list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"type":"qrcode","symbol":[]}]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			d := NewRemoteDecoder(server.URL, 2*time.Second)
			payloads, err := d.Decode(context.Background(), testImage())
			if err != nil {
				t.Fatalf("Decode() error = %v, want nil (failures are absorbed)", err)
			}
			if len(payloads) != 0 {
				t.Errorf("Decode() returned %d payloads, want 0", len(payloads))
			}
		})
	}
}

func TestRemoteDecoderTimeoutReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	d := NewRemoteDecoder(server.URL, 50*time.Millisecond)
	payloads, err := d.Decode(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil on client timeout", err)
	}
	if len(payloads) != 0 {
		t.Errorf("Decode() returned %d payloads, want 0", len(payloads))
	}
}

func TestRemoteDecoderSurfacesCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	d := NewRemoteDecoder(server.URL, 5*time.Second)
	_, err := d.Decode(ctx, testImage())
	if err == nil {
		t.Fatal("Decode() error = nil, want context cancellation")
	}
}
