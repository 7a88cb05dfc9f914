package validation

import (
	"testing"

	apperrors "go-card-scanner/internal/errors"
)

func TestValidateImageURL(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		name        string
		url         string
		wantErr     bool
		wantMessage string
	}{
		{"plain http", "http://example.com/card.jpg", false, ""},
		{"https with path", "https://sub.example.com/path/card.png", false, ""},
		{"ip host", "http://192.168.1.1/card.jpg", false, ""},
		{"empty", "", true, "URL cannot be empty"},
		{"whitespace only", "  \t\n", true, "URL cannot be empty"},
		{"missing host", "http://", true, "URL must have a valid host"},
		{"ftp scheme", "ftp://example.com/card.jpg", true, "URL scheme not allowed"},
		{"file scheme", "file://local/card.jpg", true, "URL scheme not allowed"},
		{"bare words", "not-a-url", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateImageURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected %q to fail validation", tt.url)
				}
				if tt.wantMessage != "" {
					appErr, ok := err.(*apperrors.AppError)
					if !ok {
						t.Fatalf("expected AppError, got %T", err)
					}
					if appErr.Message != tt.wantMessage {
						t.Errorf("expected message %q, got %q", tt.wantMessage, appErr.Message)
					}
				}
				return
			}
			if err != nil {
				t.Errorf("expected %q to pass validation, got: %v", tt.url, err)
			}
		})
	}
}

func TestValidateImageURLRestrictedHosts(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"http", "https"}, []string{"example.com", "trusted.com"})

	if err := validator.ValidateImageURL("https://trusted.com/card.png"); err != nil {
		t.Errorf("expected allowed host to pass, got: %v", err)
	}

	err := validator.ValidateImageURL("https://untrusted.com/card.png")
	if err == nil {
		t.Fatal("expected disallowed host to fail")
	}
	if appErr, ok := err.(*apperrors.AppError); !ok || appErr.Message != "URL host not allowed" {
		t.Errorf("expected host-not-allowed error, got: %v", err)
	}
}

func TestIsHostAllowedUnrestricted(t *testing.T) {
	validator := NewURLValidator()
	if !validator.isHostAllowed("anything.example") {
		t.Error("expected any host to be allowed when no restrictions are set")
	}
}
