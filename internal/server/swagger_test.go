package server

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

var routeParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerDocCoversRoutes(t *testing.T) {
	e := newTestEnv(t)

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	undocumented := map[string]bool{"/ws": true, "/metrics": true, "/metrics/dashboard": true}

	checked := 0
	for _, r := range e.app.GetRoutes(true) {
		path := r.Path
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
		}
		if r.Method == fiber.MethodHead || strings.Contains(path, "*") ||
			strings.HasPrefix(path, "/uploads") || undocumented[path] {
			continue
		}
		path = routeParam.ReplaceAllString(path, "{$1}")

		_, ok := doc.Paths[path][strings.ToLower(r.Method)]
		assert.Truef(t, ok, "%s %s has no swagger operation", r.Method, path)
		checked++
	}
	assert.Equal(t, 39, checked)
}
