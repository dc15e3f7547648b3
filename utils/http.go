// utils/http.go - JSON response helpers for Fiber handlers
package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// JSONError sends a JSON error response
func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// JSONSuccess sends a JSON success response. Map payloads are merged into
// the envelope, anything else lands under "data".
func JSONSuccess(c *fiber.Ctx, status int, data interface{}) error {
	response := fiber.Map{
		"success": true,
	}

	switch v := data.(type) {
	case nil:
	case fiber.Map:
		for k, val := range v {
			response[k] = val
		}
	case map[string]interface{}:
		for k, val := range v {
			response[k] = val
		}
	default:
		response["data"] = data
	}

	return c.Status(status).JSON(response)
}

// ParamUUID parses a UUID route parameter.
func ParamUUID(c *fiber.Ctx, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(key))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return id, nil
}
