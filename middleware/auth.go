package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bloodlink/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const userKey = "user"

type Claims struct {
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and checks bearer tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
	db     *gorm.DB
}

func NewAuth(secret string, ttl time.Duration, db *gorm.DB) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl, db: db}
}

// GenerateToken creates a signed JWT whose subject is the user id
func (a *Auth) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Required validates the JWT, loads its user and injects it into the context
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			Abort(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			Abort(c, http.StatusUnauthorized, "Token has expired")
			return
		case err != nil || !token.Valid:
			Abort(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		case claims.Subject == "":
			Abort(c, http.StatusUnauthorized, "Invalid authentication credentials")
			return
		}

		var user models.User
		if err := a.db.WithContext(c.Request.Context()).First(&user, "id = ?", claims.Subject).Error; err != nil {
			Abort(c, http.StatusUnauthorized, "User not found")
			return
		}
		c.Set(userKey, &user)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Abort(c, http.StatusForbidden, "Role not found in context")
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		Abort(c, http.StatusForbidden, "Access denied. Required role(s): "+rolesString(roles))
	}
}

func rolesString(roles []models.UserRole) string {
	s := make([]string, len(roles))
	for i, r := range roles {
		s[i] = string(r)
	}
	return strings.Join(s, ", ")
}

// Abort stops the chain with a {"detail": ...} body
func Abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// CurrentUser returns the authenticated caller, or nil outside Required
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) string {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	if u := CurrentUser(c); u != nil {
		return u.Role
	}
	return ""
}
