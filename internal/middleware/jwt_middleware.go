package middleware

import (
	"log"
	"strings"

	"tokobuku/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionHeader carries the anonymous cart session key.
const SessionHeader = "X-Session-Key"

const (
	localCustomerID = "customer_id"
	localSessionKey = "session_key"
)

// TokenValidator resolves a bearer token to a customer ID.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

func unauthorized(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{
		"success": false,
		"message": message,
	}
	if err != nil {
		body["error"] = err.Error()
	} else {
		body["error"] = message
	}
	return c.Status(fiber.StatusUnauthorized).JSON(body)
}

func bearerToken(c *fiber.Ctx) (string, bool, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", true, fiber.NewError(fiber.StatusUnauthorized, "Authorization header format must be 'Bearer <token>'")
	}
	return parts[1], true, nil
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, present, err := bearerToken(c)
		if !present {
			return unauthorized(c, "Authorization header is required", nil)
		}
		if err != nil {
			return unauthorized(c, err.Error(), nil)
		}

		customerID, err := auth.ValidateToken(token)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return unauthorized(c, "Invalid or expired token", err)
		}

		c.Locals(localCustomerID, customerID)
		return c.Next()
	}
}

// Identity resolves an optional customer from the bearer token and an
// optional anonymous session from the X-Session-Key header. A malformed or
// invalid token is still rejected.
func Identity(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, present, err := bearerToken(c)
		if err != nil {
			return unauthorized(c, err.Error(), nil)
		}
		if present {
			customerID, err := auth.ValidateToken(token)
			if err != nil {
				log.Printf("JWT validation failed: %v", err)
				return unauthorized(c, "Invalid or expired token", err)
			}
			c.Locals(localCustomerID, customerID)
		}
		if key := strings.TrimSpace(c.Get(SessionHeader)); key != "" {
			c.Locals(localSessionKey, key)
		}
		return c.Next()
	}
}

// CustomerID returns the authenticated customer, or "".
func CustomerID(c *fiber.Ctx) string {
	id, _ := c.Locals(localCustomerID).(string)
	return id
}

// CartOwner returns the cart owner resolved for the request. A customer
// takes precedence over a session.
func CartOwner(c *fiber.Ctx) models.CartOwner {
	key, _ := c.Locals(localSessionKey).(string)
	return models.CartOwner{CustomerID: CustomerID(c), SessionKey: key}
}
