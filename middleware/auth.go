package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/repository"
)

// CookieName is the auth cookie the client receives on login.
const CookieName = "qm_v1_cookie"

// ContextUserKey is where Protect stores the authenticated user.
const ContextUserKey = "currentUser"

// Auth guards routes with JWT credentials. The token only proves identity;
// the user record is re-fetched on every request so deactivated accounts and
// rotated passwords take effect immediately.
type Auth struct {
	Users  repository.UserRepository
	Secret []byte
}

func NewAuth(users repository.UserRepository, secret string) *Auth {
	return &Auth{Users: users, Secret: []byte(secret)}
}

func (a *Auth) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "You are not logged in, please login",
			})
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return a.Secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "Invalid or expired token",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "Invalid or expired token",
			})
			return
		}

		id, _ := claims["id"].(string)
		userID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "Invalid or expired token",
			})
			return
		}

		user, err := a.Users.FindByID(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "User no longer exists",
			})
			return
		}

		if iat, ok := claims["iat"].(float64); ok {
			issuedAt := time.Unix(int64(iat), 0)
			if user.PasswordChangedAfter(issuedAt) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"status":  "fail",
					"message": "User recently changed password, please login again",
				})
				return
			}
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RestrictTo allows only the given roles past. Must run after Protect.
func (a *Auth) RestrictTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "You are not logged in, please login",
			})
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"status":  "fail",
			"message": "You do not have permission to perform this action",
		})
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" && cookie != "logout" {
		return cookie
	}
	return ""
}
