package decoder

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"go-card-scanner/internal/logger"
	"go-card-scanner/pkg/models"
)

// remoteSymbol mirrors one decoded symbol in a qrserver-style response body:
// [{"type":"qrcode","symbol":[{"seq":0,"data":"...","error":null}]}]
type remoteSymbol struct {
	Seq   int     `json:"seq"`
	Data  *string `json:"data"`
	Error *string `json:"error"`
}

type remoteResult struct {
	Type   string         `json:"type"`
	Symbol []remoteSymbol `json:"symbol"`
}

// RemoteDecoder posts the image to an external decoding service. Any failure
// short of context cancellation yields an empty result, never an error: the
// cascade treats the remote tier as best-effort.
type RemoteDecoder struct {
	client   *http.Client
	endpoint string
}

// NewRemoteDecoder creates a remote decoder against the given endpoint with
// a caller-configurable network budget.
func NewRemoteDecoder(endpoint string, timeout time.Duration) *RemoteDecoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	return &RemoteDecoder{
		endpoint: endpoint,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Decode uploads the image as multipart form data and parses the JSON list
// of decoded symbols.
func (d *RemoteDecoder) Decode(ctx context.Context, img image.Image) ([]models.DecodedPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipartImage(img)
	if err != nil {
		logger.WithError(err).Warn("remote decode: failed to encode image")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, body)
	if err != nil {
		logger.WithError(err).Warn("remote decode: invalid request")
		return nil, nil
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		// The caller going away is the one failure the cascade must see.
		if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, ctxErr
		}
		logger.WithError(err).WithField("endpoint", d.endpoint).Warn("remote decode: request failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WithFields(logrus.Fields{
			"endpoint":    d.endpoint,
			"status_code": resp.StatusCode,
		}).Warn("remote decode: non-OK response")
		return nil, nil
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logger.WithError(err).Warn("remote decode: failed to read response")
		return nil, nil
	}

	var results []remoteResult
	if err := json.Unmarshal(payload, &results); err != nil {
		logger.WithError(err).Warn("remote decode: malformed response body")
		return nil, nil
	}

	var decoded []models.DecodedPayload
	for _, result := range results {
		for _, symbol := range result.Symbol {
			if symbol.Data == nil || *symbol.Data == "" {
				continue
			}
			symbology := models.SymbologyOther
			if result.Type == "qrcode" {
				symbology = models.SymbologyQR
			}
			decoded = append(decoded, models.DecodedPayload{
				Data:      *symbol.Data,
				Symbology: symbology,
			})
		}
	}
	return decoded, nil
}

func encodeMultipartImage(img image.Image) (*bytes.Buffer, string, error) {
	var imageBuf bytes.Buffer
	if err := png.Encode(&imageBuf, img); err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "capture.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(imageBuf.Bytes()); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
