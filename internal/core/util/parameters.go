package util

import (
	"errors"

	"github.com/gin-gonic/gin"
)

var ErrNotJSONObject = errors.New("request body must be a JSON object")

func ParamsToMap[T any](c *gin.Context) (T, error) {
	var params T

	if err := c.ShouldBindJSON(&params); err != nil {
		return params, err
	}

	return params, nil
}

// BodyToObject decodes the request body as a JSON object. Arrays, scalars and
// null are refused.
func BodyToObject(c *gin.Context) (map[string]any, error) {
	body, err := ParamsToMap[map[string]any](c)
	if err != nil {
		return nil, err
	}

	if body == nil {
		return nil, ErrNotJSONObject
	}

	return body, nil
}
