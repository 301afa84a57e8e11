package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"harvest/internal/middleware"
	"harvest/internal/store"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the bootstrap admin credentials and establishes a
// session: the signed token is set as an HttpOnly cookie and also
// returned in the body for header-based clients.
func Login(st store.Store, jwtSecret string, sessionTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		username := strings.TrimSpace(req.Username)
		admin, err := st.VerifyAdmin(c.Request.Context(), username, req.Password)
		if errors.Is(err, store.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			log.Println("Login lookup error:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		claims := jwt.MapClaims{
			"sub":  admin.Username,
			"role": admin.Role,
			"exp":  time.Now().Add(sessionTTL).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		c.SetCookie(middleware.SessionCookie, signed, int(sessionTTL.Seconds()), "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"role":    admin.Role,
			"token":   signed,
		})
	}
}

// Logout drops the session cookie.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// Session reports the current caller identity, or user: null for
// anonymous callers. It never rejects the request.
func Session(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(middleware.SessionCookie)
		if err != nil || raw == "" {
			if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
				parts := strings.Split(header, " ")
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					raw = parts[1]
				}
			}
		}
		if raw == "" {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}

		claims, ok := middleware.ParseClaims(raw, jwtSecret)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}

		username, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		c.JSON(http.StatusOK, gin.H{"user": gin.H{"username": username, "role": role}})
	}
}
