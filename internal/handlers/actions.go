package handlers

import (
	"github.com/gin-gonic/gin"
)

// formAction performs one board mutation and returns the success status and
// the JSON body for API clients.
type formAction func(c *gin.Context) (int, interface{}, error)

func run(c *gin.Context, action formAction) {
	status, data, err := action(c)
	if err != nil {
		handleError(c, err)
		return
	}
	done(c, status, boardPath, data)
}
