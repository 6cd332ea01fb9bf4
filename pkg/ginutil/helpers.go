package ginutil

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt extracts an integer from query parameters with default value
func QueryInt(c *gin.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// QueryIntRange is QueryInt limited to [min, max]. Values outside the range
// yield defaultValue.
func QueryIntRange(c *gin.Context, key string, defaultValue, min, max int) int {
	value := QueryInt(c, key, defaultValue)
	if value < min || value > max {
		return defaultValue
	}
	return value
}

// ParamInt64 extracts a positive int64 from path parameters
func ParamInt64(c *gin.Context, key string) (int64, error) {
	value, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, strconv.ErrRange
	}
	return value, nil
}
