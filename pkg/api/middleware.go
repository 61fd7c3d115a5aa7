package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxAuthToken = "auth_token"
	ctxUserID    = "user_id"
)

// requireAuth extracts the bearer token or access_token cookie and
// forwards it to Core's /auth/me, per spec §6's authentication rule:
// "every /chat* and /files* route requires either an Authorization:
// Bearer … header or an access_token cookie; the token is validated by
// forwarding /auth/me to the Core service."
func (s *Server) requireAuth(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token, _ = c.Cookie("access_token")
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return
	}

	resp, err := s.core.AuthMe(c.Request.Context(), token)
	if err != nil || resp == nil || !resp.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.Set(ctxAuthToken, token)
	c.Set(ctxUserID, resp.UserID)
	c.Next()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func authToken(c *gin.Context) string {
	v, _ := c.Get(ctxAuthToken)
	s, _ := v.(string)
	return s
}
