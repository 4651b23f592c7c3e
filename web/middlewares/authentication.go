package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"sitecrew.com.au/sitecrew/security"
	"sitecrew.com.au/sitecrew/timeclock"
	"sitecrew.com.au/sitecrew/web/common"
)

const sessionKey = "session"

func parseJwt(tokenStr string, jwtSecret []byte) (*security.IdentityClaims, error) {
	claims := &security.IdentityClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Authentication checks for a valid Bearer token (or the application
// cookie) and puts the resolved session claims into the gin context.
func Authentication(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			cookie, err := c.Cookie("sitecrew.ApplicationCookie")
			if err != nil {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			tokenStr = cookie
		} else {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			tokenStr = parts[1]
		}

		claims, err := parseJwt(tokenStr, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired token"))
			return
		}

		c.Set(sessionKey, &timeclock.Claims{
			EmployeeID: claims.Identity.ID,
			CompanyID:  claims.CompanyID,
			Role:       claims.Role,
			DeviceID:   claims.DeviceID,
		})
		c.Next()
	}
}

// Session returns the claims placed by Authentication, or nil.
func Session(c *gin.Context) *timeclock.Claims {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*timeclock.Claims)
	return claims
}
