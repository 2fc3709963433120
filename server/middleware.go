package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/existflow/memberbooth/internal/logger"
)

// authMiddleware checks for a token issued by the store
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, errorBody("authorization required"))
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token == "" {
			return c.JSON(http.StatusUnauthorized, errorBody("invalid authorization format"))
		}

		ok, err := s.store.ValidToken(c.Request().Context(), token)
		if err != nil {
			logger.Error("Token lookup failed", logger.Err(err))
			return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
		}
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody("invalid token"))
		}
		return next(c)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"status": "error", "message": msg}
}
