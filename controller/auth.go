package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/askdocs/server/models"
)

// tenantContextKey is where the auth middleware stores the resolved tenant.
const tenantContextKey = "tenant"

// TenantResolver turns an inbound request into a tenant key. Handlers only
// ever see the resolved tenant, never raw credentials.
//
// Two deployment modes exist:
//   - bearer mode: a configured token map resolves Authorization headers;
//   - open mode: the tenant id comes from the X-User-ID header, falling
//     back to "default" for single-user deployments.
func TenantMiddleware(authTokens map[string]string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var userID string

		if len(authTokens) > 0 {
			header := ctx.GetHeader("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication scheme"})
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			resolved, ok := authTokens[token]
			if !ok {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
				return
			}
			userID = resolved
		} else {
			userID = ctx.GetHeader("X-User-ID")
			if userID == "" {
				userID = "default"
			}
		}

		tenant, err := models.NewTenantKey(userID)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant identifier"})
			return
		}
		ctx.Set(tenantContextKey, tenant)
		ctx.Next()
	}
}

// currentTenant reads the tenant resolved by TenantMiddleware.
func currentTenant(ctx *gin.Context) (models.TenantKey, bool) {
	v, ok := ctx.Get(tenantContextKey)
	if !ok {
		return models.TenantKey{}, false
	}
	tenant, ok := v.(models.TenantKey)
	return tenant, ok
}
