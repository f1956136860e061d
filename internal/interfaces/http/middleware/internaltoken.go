package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meridian/internal/infrastructure/auth"
	"meridian/internal/shared/constants"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

// InternalTokenMiddleware gates the node gateway API behind the shared
// internal key. The holder is consulted per request so key rotation applies
// immediately.
type InternalTokenMiddleware struct {
	keyHolder *auth.InternalKeyHolder
	logger    logger.Interface
}

func NewInternalTokenMiddleware(keyHolder *auth.InternalKeyHolder, logger logger.Interface) *InternalTokenMiddleware {
	return &InternalTokenMiddleware{
		keyHolder: keyHolder,
		logger:    logger,
	}
}

func (m *InternalTokenMiddleware) RequireInternalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(constants.HeaderInternalToken)
		if !m.keyHolder.Matches(token) {
			m.logger.Warnw("internal token rejected",
				"path", c.Request.URL.Path, "client_ip", c.ClientIP())
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid internal token")
			c.Abort()
			return
		}
		c.Next()
	}
}
