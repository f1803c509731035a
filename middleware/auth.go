package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"partner-onboarding-api/config"
	"partner-onboarding-api/models"
)

// Subject types carried in tokens
const (
	SubjectDriver     = "driver"
	SubjectRestaurant = "restaurant"
	SubjectAdmin      = "admin"
)

type Claims struct {
	SubjectID   string           `json:"subject_id"`
	SubjectType string           `json:"subject_type"`
	Role        models.AdminRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a subject
func GenerateToken(subjectID, subjectType string, role models.AdminRole) (string, error) {
	claims := Claims{
		SubjectID:   subjectID,
		SubjectType: subjectType,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret)
}

// ParseToken verifies a token string and returns its claims. Expired and
// malformed tokens are rejected identically.
func ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return config.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// AuthRequired validates the JWT for the expected subject type and resolves
// the subject back to its persisted record, injecting it into context.
func AuthRequired(subjectType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Authorization header required (Bearer <token>)")
			return
		}
		claims, err := ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}
		if claims.SubjectType != subjectType {
			unauthorized(c, "Invalid or expired token")
			return
		}

		switch subjectType {
		case SubjectAdmin:
			var admin models.Admin
			if err := config.DB.First(&admin, "id = ?", claims.SubjectID).Error; err != nil {
				notFound(c)
				return
			}
			c.Set("admin", &admin)
		case SubjectDriver:
			var driver models.Driver
			if err := config.DB.First(&driver, "id = ?", claims.SubjectID).Error; err != nil {
				notFound(c)
				return
			}
			c.Set("entity", models.StagedEntity(&driver))
		case SubjectRestaurant:
			var restaurant models.Restaurant
			if err := config.DB.First(&restaurant, "id = ?", claims.SubjectID).Error; err != nil {
				notFound(c)
				return
			}
			c.Set("entity", models.StagedEntity(&restaurant))
		}

		c.Set("subjectID", claims.SubjectID)
		c.Set("role", string(claims.Role))
		c.Next()
	}
}

// RoleRequired enforces that the caller admin has one of the allowed roles
func RoleRequired(roles ...models.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists {
			forbidden(c)
			return
		}
		callerRole := models.AdminRole(roleVal.(string))
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		forbidden(c)
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
	c.Abort()
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Account not found"})
	c.Abort()
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
	c.Abort()
}

// GetSubjectID extracts the caller's id from context
func GetSubjectID(c *gin.Context) string {
	val, _ := c.Get("subjectID")
	return val.(string)
}

// GetEntity extracts the resolved staged entity from context
func GetEntity(c *gin.Context) models.StagedEntity {
	val, _ := c.Get("entity")
	return val.(models.StagedEntity)
}

// GetAdmin extracts the resolved admin from context
func GetAdmin(c *gin.Context) *models.Admin {
	val, _ := c.Get("admin")
	return val.(*models.Admin)
}
