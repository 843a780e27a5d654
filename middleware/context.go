package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/BongominErickJuma/quickmart-server/models"
)

// CurrentUser returns the user Protect stored on the request, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
