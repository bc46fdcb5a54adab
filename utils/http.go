package utils

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SetHeaderNoCache sets the no cache header.
func SetHeaderNoCache(c *gin.Context) {
	c.Header("Expires", "Fri, 01 Jan 1980 00:00:00 GMT")
	c.Header("Pragma", "no-cache")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
}

// AbortWithError writes {"error": ...} and stops the handler chain.
// Server side errors are logged, retry adds "retry": true to the body.
func AbortWithError(c *gin.Context, status int, err error, retry bool) {
	if status >= 500 {
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	body := gin.H{"error": err.Error()}
	if retry {
		body["retry"] = true
	}
	c.AbortWithStatusJSON(status, body)
}
