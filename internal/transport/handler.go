package transport

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-card-scanner/internal/config"
	apperrors "go-card-scanner/internal/errors"
	"go-card-scanner/internal/logger"
	"go-card-scanner/internal/service"
	"go-card-scanner/pkg/models"
)

// NewHandler builds the HTTP surface: multipart and URL scan endpoints plus a
// health check.
func NewHandler(scanner service.ScanService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/scan", scanUpload(scanner, cfg))
	r.POST("/scan-url", scanFromURL(scanner, cfg))

	return r
}

// scanUpload accepts a card capture as a multipart "image" file.
func scanUpload(scanner service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing card scan upload")

		fileHeader, err := c.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, "missing image file", err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable image file", err)
			return
		}
		defer file.Close()

		img, _, err := image.Decode(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "unsupported image format", err)
			return
		}

		result, err := scanner.ProcessImage(ctx, img)
		if err != nil {
			respondScanError(c, err)
			return
		}

		logScanCompleted(c, result)
		c.JSON(http.StatusOK, models.ScanResponse{Success: true, Result: result})
	}
}

// scanFromURL accepts a JSON body naming the capture's location.
func scanFromURL(scanner service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.ScanURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url": req.URL,
			"ip":  c.ClientIP(),
		}).Info("Processing card scan from URL")

		result, err := scanner.ProcessImageFromURL(ctx, req.URL)
		if err != nil {
			respondScanErrorWithURL(c, req.URL, err)
			return
		}

		logScanCompleted(c, result)
		c.JSON(http.StatusOK, models.ScanResponse{Success: true, Result: result})
	}
}

func logScanCompleted(c *gin.Context, result *models.ScanResult) {
	logger.WithFields(logrus.Fields{
		"scan_id":            result.ScanID,
		"processing_time_ms": int64(result.ProcessingTimeSec * 1000),
		"codes":              len(result.Codes),
		"provenance":         result.Contact.Provenance,
	}).Info("Card scan completed")
}

func respondScanError(c *gin.Context, err error) {
	respondError(c, apperrors.GetStatusCode(err), "scan failed", err)
}

func respondScanErrorWithURL(c *gin.Context, url string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"url": url,
		"ip":  c.ClientIP(),
	}).Error("Scan from URL failed")
	respondError(c, apperrors.GetStatusCode(err), "scan failed", err)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
