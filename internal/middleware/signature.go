package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const signaturePrefix = "sha256="

// ErrInvalidSignature covers a missing, malformed, or mismatching
// X-Hub-Signature-256 header.
var ErrInvalidSignature = errors.New("invalid signature")

// ValidateSignature checks that header carries the hex HMAC-SHA256 digest of
// body under secret, prefixed with "sha256=". Comparison is constant-time.
func ValidateSignature(secret string, body []byte, header string) error {
	if !strings.HasPrefix(header, signaturePrefix) {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(header[len(signaturePrefix):])) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifySignature rejects webhook deliveries whose payload was not signed
// with the shared app secret. The body is re-buffered so downstream handlers
// can still read it.
func VerifySignature(appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status": "error", "message": "Unable to read request body",
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		header := c.GetHeader("X-Hub-Signature-256")
		if err := ValidateSignature(appSecret, body, header); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status": "error", "message": "Invalid signature",
			})
			return
		}

		c.Next()
	}
}
