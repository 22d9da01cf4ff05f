package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondOKWithETag writes a success envelope tagged with a strong ETag over its body,
// answering 304 when the client already holds that representation.
func RespondOKWithETag(ctx *gin.Context, message string, data any) {
	body := Envelope{Success: true, Message: message, Data: data}

	raw, err := json.Marshal(body)
	if err != nil {
		ctx.JSON(http.StatusOK, body)
		return
	}

	sum := sha256.Sum256(raw)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "private, no-cache")

	if etagListed(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func etagListed(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, part := range strings.Split(header, ",") {
		// weak comparison, W/"x" matches "x"
		v := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if v == etag {
			return true
		}
	}

	return false
}
