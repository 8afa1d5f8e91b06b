package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/captionly/internal/logger"
)

func completionLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var last map[string]interface{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line), sc.Text())
		if _, ok := line[logger.FieldStatus]; ok {
			last = line
		}
	}
	require.NotNil(t, last, "no completion line logged")
	return last
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warning"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf, ServiceName: "captionly-test"})

			r := gin.New()
			r.Use(RequestLogger(log))
			r.GET("/x", func(c *gin.Context) {
				assert.Equal(t, "req-7", logger.GetRequestID(c.Request.Context()))
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(RequestIDHeader, "req-7")
			r.ServeHTTP(httptest.NewRecorder(), req)

			line := completionLine(t, &buf)
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, "req-7", line[logger.FieldRequestID])
			assert.Equal(t, float64(tt.status), line[logger.FieldStatus])
		})
	}
}
