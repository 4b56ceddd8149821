package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/config"
)

// AdminAuthHandler authenticates pool operators. Admin endpoints (mint,
// fee ledger management) require the JWT it issues.
type AdminAuthHandler struct {
	jwtSecret  []byte
	totpSecret string
	logger     *logrus.Logger
}

// AdminLoginRequest is the admin login body
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"required"`
}

// AdminJWTClaims are the claims carried by an admin token
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAdminAuthHandler creates the handler. The TOTP secret must come from
// the environment; without it admin login is disabled.
func NewAdminAuthHandler(logger *logrus.Logger) *AdminAuthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	totpSecret := os.Getenv("ADMIN_TOTP_SECRET")
	if totpSecret == "" {
		logger.Warn("ADMIN_TOTP_SECRET not set, admin login disabled")
	}

	return &AdminAuthHandler{
		jwtSecret:  config.GetJWTSecret(),
		totpSecret: totpSecret,
		logger:     logger,
	}
}

// LoginHandler verifies admin credentials and issues a 24h JWT.
// POST /api/admin/login
func (h *AdminAuthHandler) LoginHandler(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
		})
		return
	}

	if h.totpSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Admin login is not configured",
			"code":    "ADMIN_LOGIN_DISABLED",
		})
		return
	}

	if !h.validateCredentials(req.Username, req.Password) {
		h.logger.WithField("username", req.Username).Warn("admin login rejected: bad credentials")
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid credentials",
			"code":    "INVALID_CREDENTIALS",
		})
		return
	}

	if !totp.Validate(req.TOTPCode, h.totpSecret) {
		h.logger.WithField("username", req.Username).Warn("admin login rejected: bad TOTP code")
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid TOTP code",
			"code":    "INVALID_TOTP",
		})
		return
	}

	token, err := h.generateToken(req.Username)
	if err != nil {
		h.logger.WithError(err).Error("admin token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Token generation failed",
			"code":    "TOKEN_GENERATION_FAILED",
		})
		return
	}

	h.logger.WithField("username", req.Username).Info("admin login success")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

// validateCredentials compares against ADMIN_USERNAME / ADMIN_PASSWORD_HASH
// (sha256 hex of the password).
func (h *AdminAuthHandler) validateCredentials(username, password string) bool {
	expectedUser := os.Getenv("ADMIN_USERNAME")
	expectedHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if expectedUser == "" || expectedHash == "" {
		return false
	}

	sum := sha256.Sum256([]byte(password))
	gotHash := hex.EncodeToString(sum[:])

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(expectedUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(gotHash), []byte(expectedHash)) == 1
	return userOK && passOK
}

func (h *AdminAuthHandler) generateToken(username string) (string, error) {
	now := time.Now()
	claims := AdminJWTClaims{
		Username: username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "shieldpool",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// ValidateAdminToken parses and verifies an admin JWT.
func ValidateAdminToken(tokenString string) (*AdminJWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminJWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminJWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role != "admin" {
		return nil, fmt.Errorf("not an admin token")
	}
	return claims, nil
}
