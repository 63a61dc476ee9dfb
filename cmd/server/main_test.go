package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORSPolicy(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := CreateServer([]string{"http://localhost:5173"})
	r.GET("/testroute", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "success")
	})

	type testCase struct {
		name           string
		origin         string
		expectedStatus int
	}

	tests := []testCase{
		{
			name:           "no origin passes through",
			origin:         "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "allowed origin passes",
			origin:         "http://localhost:5173",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "disallowed origin is forbidden",
			origin:         "http://evil.example",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/testroute", nil)
			if tc.origin != "" {
				req.Header.Add("Origin", tc.origin)
			}
			res := httptest.NewRecorder()

			r.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedStatus, res.Code)
			if tc.origin != "" && tc.expectedStatus == http.StatusOK {
				assert.Equal(t, tc.origin, res.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
