package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the key used to store the authenticated user's ID in the context.
const userIDKey = contextKey("userID")

// companyIDKey is the key used to store the authenticated operator's company.
const companyIDKey = contextKey("companyID")

// clientIPKey carries the resolved client IP after source verification.
const clientIPKey = contextKey("clientIP")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		userIDVal := c.Request.Context().Value(userIDKey)
		if userIDVal != nil {
			return userIDVal.(string), true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}

	return userID, true
}

// GetCompanyIDFromContext retrieves the authenticated operator's company ID.
func GetCompanyIDFromContext(c *gin.Context) (string, bool) {
	companyIDVal := c.Request.Context().Value(companyIDKey)
	if companyIDVal == nil {
		return "", false
	}
	companyID, ok := companyIDVal.(string)
	return companyID, ok
}

// GetVerifiedClientIP retrieves the client IP resolved by the webhook source
// middleware. Falls back to Gin's own resolution when the middleware did not run.
func GetVerifiedClientIP(c *gin.Context) string {
	ipVal := c.Request.Context().Value(clientIPKey)
	if ip, ok := ipVal.(string); ok && ip != "" {
		return ip
	}
	return c.ClientIP()
}
