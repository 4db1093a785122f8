package middleware

import (
	"net/http"

	"github.com/edirooss/nvr-server/internal/domain/camera"
	"github.com/gin-gonic/gin"
)

const cameraKey = "camera"

// RequireKnownCamera resolves the :id path parameter against the configured
// cameras and aborts with 404 when it names none.
func RequireKnownCamera(cams camera.List) gin.HandlerFunc {
	return func(c *gin.Context) {
		cam, ok := cams.Find(c.Param("id"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "unknown camera"})
			return
		}
		c.Set(cameraKey, cam)
		c.Next()
	}
}

// GetCamera returns the camera resolved by RequireKnownCamera.
func GetCamera(c *gin.Context) *camera.Camera {
	if v, ok := c.Get(cameraKey); ok {
		if cam, ok := v.(*camera.Camera); ok {
			return cam
		}
	}
	return nil
}
