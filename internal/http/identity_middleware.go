package http

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const callerTokenKey = "caller_token"

// IdentityTokenMiddleware extrae el token del caller sin validarlo: un JWT
// en Authorization o un DID crudo en X-Agent-DID, como el protocolo
// original. La resolución (y el soft-fail de votos) queda en los services.
func IdentityTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(header), "bearer ") {
			token = strings.TrimSpace(header[len("Bearer "):])
		}
		if token == "" {
			token = strings.TrimSpace(c.GetHeader("X-Agent-DID"))
		}
		c.Set(callerTokenKey, token)
		c.Next()
	}
}

// CallerToken obtiene el token del caller desde el contexto del request.
func CallerToken(c *gin.Context) string {
	val, ok := c.Get(callerTokenKey)
	if !ok {
		return ""
	}
	token, _ := val.(string)
	return token
}
