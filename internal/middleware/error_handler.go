package middleware

import (
	"log"
	"net/http"

	"bingo-service/internal/dto"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v", err)
				dto.JsonError(c, http.StatusInternalServerError)
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			log.Printf("Request error: %v", err.Err)

			statusCode := c.Writer.Status()
			if statusCode == http.StatusOK {
				statusCode = http.StatusInternalServerError
			}

			dto.JsonError(c, statusCode, err.Error())
		}
	}
}
