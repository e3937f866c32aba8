package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/rivadavia/grainops/internal/model"
)

type fakeParser struct{}

func (fakeParser) Parse(raw string) (model.Principal, error) {
	if raw == "good" {
		return model.Principal{UserID: "u-1"}, nil
	}
	return model.Principal{}, errors.New("bad token")
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", Auth(fakeParser{}), func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		assert.True(t, ok)
		c.String(http.StatusOK, principal.UserID)
	})

	cases := map[string]struct {
		header string
		status int
	}{
		"valid":       {"Bearer good", http.StatusOK},
		"lower":       {"bearer good", http.StatusOK},
		"missing":     {"", http.StatusUnauthorized},
		"bad scheme":  {"Basic good", http.StatusUnauthorized},
		"bad token":   {"Bearer nope", http.StatusUnauthorized},
		"empty token": {"Bearer ", http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
