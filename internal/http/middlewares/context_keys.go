package middlewares

import "github.com/gin-gonic/gin"

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxIdentity  = "auth.identity"
)

// abort ends the request with the API error envelope.
func abort(c *gin.Context, status int, message string) {
	body := gin.H{"success": false, "message": message}

	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}

	c.AbortWithStatusJSON(status, body)
}
