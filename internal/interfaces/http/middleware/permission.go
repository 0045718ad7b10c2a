package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
	// OnDenied is called when permission is denied (optional)
	OnDenied func(c *gin.Context, requiredFeatures []string)
}

// RequireFeatureWithConfig creates a feature guard with custom config
func RequireFeatureWithConfig(feature string, cfg PermissionConfig) gin.HandlerFunc {
	return RequireAnyFeatureWithConfig(cfg, feature)
}

// RequireAnyFeatureWithConfig lets the request through when the snapshot
// holds at least one of features
func RequireAnyFeatureWithConfig(cfg PermissionConfig, features ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handlePermissionDenied(c, cfg, features, "No authentication claims found")
			return
		}

		if !slices.ContainsFunc(features, claims.HasPermission) {
			handlePermissionDenied(c, cfg, features, "User lacks required feature")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Permission check passed",
				zap.String("user_id", claims.UserID),
				zap.Strings("required_any", features),
			)
		}
		c.Next()
	}
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, required []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, required)
		return
	}

	if cfg.Logger != nil {
		userID := ""
		var userPerms []string
		if claims := GetJWTClaims(c); claims != nil {
			userID = claims.UserID
			userPerms = claims.Permissions
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.Strings("required_features", required),
			zap.Strings("user_permissions", userPerms),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	abortWithError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Access denied: insufficient permissions")
}
