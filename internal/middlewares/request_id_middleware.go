package middlewares

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with a unique ID so proxy log lines
// can be correlated with upstream failures. An incoming ID is kept, otherwise
// a fresh one is generated.
func RequestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = xid.New().String()
		}

		c.Locals("request_id", requestID)
		c.Set(RequestIDHeader, requestID)

		err := c.Next()
		if err != nil {
			log.Error().
				Err(err).
				Str("request_id", requestID).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Request failed")
		}

		return err
	}
}

// RequestID returns the ID assigned by RequestIDMiddleware, or an empty
// string when the middleware is not installed.
func RequestID(c fiber.Ctx) string {
	if id, ok := c.Locals("request_id").(string); ok {
		return id
	}
	return ""
}
