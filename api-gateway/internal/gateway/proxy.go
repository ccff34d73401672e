package gateway

import (
	"bytes"
	"io"
	"net/http"

	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/middleware"
	"github.com/gin-gonic/gin"
)

// Hop-by-hop headers are not forwarded in either direction.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
}

// proxyTo forwards the request unchanged to the same path on serviceURL and
// copies the upstream response back.
func proxyTo(serviceURL string, client *http.Client, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			if body, err = io.ReadAll(c.Request.Body); err != nil {
				middleware.RespondWithError(c, http.StatusBadRequest, "Failed to read request body")
				return
			}
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(body))
		if err != nil {
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create request")
			return
		}
		copyHeaders(req.Header, c.Request.Header)
		if requestID := c.GetString("requestId"); requestID != "" {
			req.Header.Set(middleware.RequestIDHeader, requestID)
		}
		req.Header.Set("X-Forwarded-For", c.ClientIP())

		resp, err := client.Do(req)
		if err != nil {
			log.Error("Error proxying request", logger.Fields{"target": targetURL, "error": err})
			middleware.RespondWithError(c, http.StatusBadGateway, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadGateway, "Failed to read response")
			return
		}

		copyHeaders(c.Writer.Header(), resp.Header)
		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}

// copyHeaders replaces each end-to-end header of src in dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst.Del(key)
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
