package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ddjj/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the "role" claim.
const (
	RoleAdmin    = "admin"    // policy, backfill, registry, audit
	RoleOperator = "operator" // transmission marks, notifications, reporting
	RoleTaxpayer = "taxpayer" // own filings and rectifications only
)

// Context keys set by RequireRole.
const (
	ContextUserID     = "userID"
	ContextUserRole   = "userRole"
	ContextTaxpayerID = "taxpayerID"
)

const devSecret = "default_super_secret_key"

var (
	secretMu  sync.RWMutex
	jwtSecret = []byte(devSecret)
)

// InitAuth sets the HMAC secret used to verify tokens. config.Load refuses an
// empty secret in release mode; in development the built-in fallback stays.
func InitAuth(secret string) {
	if secret == "" {
		return
	}
	secretMu.Lock()
	jwtSecret = []byte(secret)
	secretMu.Unlock()
}

func GetJWTSecret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return jwtSecret
}

// IssueToken signs an HS256 token for subject. taxpayerID is only embedded for
// the taxpayer role.
func IssueToken(subject, role string, taxpayerID uint, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	if role == RoleTaxpayer && taxpayerID != 0 {
		claims["taxpayer_id"] = taxpayerID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(GetJWTSecret())
}

// ParseToken validates an HMAC signed token and returns its claims.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RequireRole Middleware validates the JWT token and checks if the user's role exists in the allowedRoles list
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if userRole == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		if userRole == RoleTaxpayer {
			id, ok := claimUint(claims["taxpayer_id"])
			if !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Taxpayer token without taxpayer_id"))
				return
			}
			c.Set(ContextTaxpayerID, id)
		}

		c.Set(ContextUserID, claims["sub"])
		c.Set(ContextUserRole, userRole)

		c.Next()
	}
}

// Actor returns the authenticated subject for audit entries.
func Actor(c *gin.Context) string {
	if sub, ok := c.Get(ContextUserID); ok {
		if s, ok := sub.(string); ok {
			return s
		}
	}
	return ""
}

// CanActFor reports whether the caller may act on taxpayerID. Staff roles may
// act for anyone; taxpayer tokens only for themselves.
func CanActFor(c *gin.Context, taxpayerID uint) bool {
	if c.GetString(ContextUserRole) != RoleTaxpayer {
		return true
	}
	scoped, ok := c.Get(ContextTaxpayerID)
	return ok && scoped.(uint) == taxpayerID
}

func claimUint(v interface{}) (uint, bool) {
	switch n := v.(type) {
	case float64:
		if n <= 0 {
			return 0, false
		}
		return uint(n), true
	case string:
		id, err := strconv.ParseUint(n, 10, 64)
		if err != nil || id == 0 {
			return 0, false
		}
		return uint(id), true
	}
	return 0, false
}
