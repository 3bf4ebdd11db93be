package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

type apiClaims struct {
	jwt.RegisteredClaims
}

type loginRequest struct {
	Code string `json:"code"`
}

// Login exchanges the shared access code for an API bearer token.
func (handler *Handler) Login(c *fiber.Ctx) error {
	var request loginRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.identity.VerifyAccessCode(request.Code); err != nil {
		return apiError(c, fiber.StatusUnauthorized, "invalid access code")
	}

	token, err := handler.buildToken()
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create token")
	}
	return c.JSON(fiber.Map{"token": token})
}

func (handler *Handler) buildToken() (string, error) {
	now := time.Now()
	claims := apiClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "frontend",
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(handler.secretKey)
}

// AuthRequired validates the bearer token on every API route.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	rawToken, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(rawToken) == "" {
		return apiError(c, fiber.StatusUnauthorized, "missing token")
	}

	claims := &apiClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return handler.secretKey, nil
	})
	if err != nil || !parsed.Valid {
		return apiError(c, fiber.StatusUnauthorized, "invalid token")
	}
	return c.Next()
}
