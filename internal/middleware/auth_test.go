package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := stubValidator{
		"mentee": {UserID: "mentee-1", Role: models.RoleMentee},
		"mentor": {UserID: "mentor-1", Role: models.RoleMentor},
	}
	r := gin.New()
	r.GET("/open", OptionalJWT(tokens), func(c *gin.Context) {
		_, ok := c.Get(ContextUserKey)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	r.GET("/lessons/my", JWT(tokens), RequireRoles(models.RoleMentee), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestJWTAndRoles(t *testing.T) {
	r := authRouter()
	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Token mentee", http.StatusUnauthorized},
		{"Bearer bogus", http.StatusUnauthorized},
		{"Bearer mentor", http.StatusForbidden},
		{"Bearer mentee", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/lessons/my", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, tc.header)
	}
}

func TestOptionalJWT(t *testing.T) {
	r := authRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer mentee")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"authenticated":true}`, w.Body.String())
}
