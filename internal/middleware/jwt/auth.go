package jwt

import (
	"strings"

	userEntity "ChatLens/internal/modules/user/domain/entity"
	"ChatLens/pkg/back"
	"ChatLens/pkg/util/myjwt"
	"ChatLens/pkg/xerr"

	"github.com/gin-gonic/gin"
)

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := myjwt.ParseToken(tokenString)
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("uuid", claims.Uuid)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// AdminOnly 管理端接口门禁，必须挂在 Auth() 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != userEntity.RoleAdmin {
			back.Error(c, xerr.Forbidden, xerr.ErrNoPermission.Message)
			c.Abort()
			return
		}
		c.Next()
	}
}
