package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/repository"
	"github.com/daylog-hq/daylog/pkg/helpers"
	"github.com/daylog-hq/daylog/pkg/response"
)

// Auth validates the access token and ensures an active session exists in
// Redis. It sets userID, userName, and userRole in the Gin context on
// success. With a nil Redis client the token alone carries the session.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}
		id, err := claims.Subject()
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		c.Set("userID", id)

		if rdb == nil {
			c.Next()
			return
		}

		// Session lives in Redis as a hash
		key := helpers.SessionKey(claims.UserID)
		data, err := rdb.HGetAll(c.Request.Context(), key).Result()
		if err != nil || len(data) == 0 {
			response.AbortError(c, http.StatusUnauthorized, "session not found", nil)
			return
		}

		c.Set("userName", data["username"])
		c.Set("userRole", data["role"])
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers. It must run after Auth; when the
// session hash did not carry the role (no Redis), the store is consulted.
func RequireAdmin(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("userRole")
		if role == "" && store != nil {
			u, err := store.GetUser(c.Request.Context(), c.GetInt64("userID"))
			if err != nil {
				response.AbortError(c, http.StatusUnauthorized, "not authenticated", nil)
				return
			}
			role = u.Role
			c.Set("userRole", role)
			c.Set("userName", u.Username)
		}
		if role != entity.RoleAdmin {
			response.AbortError(c, http.StatusUnauthorized, "admin only", nil)
			return
		}
		c.Next()
	}
}
