package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"billing-dashboard/internal/domain/identity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("middleware-secret")

func init() { gin.SetMode(gin.TestMode) }

func router() *gin.Engine {
	r := gin.New()
	auth := r.Group("/", AuthMiddleware(secret))
	auth.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(KeyEmail), "customer": CustomerID(c)})
	})
	auth.GET("/billing", RequireCustomer(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	auth.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/echo", SanitizeAndCleanInputMiddleware(), func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "empty"})
			return
		}
		c.JSON(http.StatusOK, body)
	})
	return r
}

func token(t *testing.T, s identity.Session) string {
	t.Helper()
	raw, err := identity.IssueToken(secret, s, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + raw
}

func do(r http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := router()

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer nope"} {
		w := do(r, http.MethodGet, "/whoami", header, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.JSONEq(t, `{"message":"Not authenticated"}`, w.Body.String())
	}

	w := do(r, http.MethodGet, "/whoami", token(t, identity.Session{UserID: 1, Email: "ada@example.com", CustomerID: "cus_1"}), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"ada@example.com","customer":"cus_1"}`, w.Body.String())
}

func TestRequireCustomer(t *testing.T) {
	r := router()

	w := do(r, http.MethodGet, "/billing", token(t, identity.Session{UserID: 1, Email: "ada@example.com"}), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No customer found"}`, w.Body.String())

	w = do(r, http.MethodGet, "/billing", token(t, identity.Session{UserID: 1, Email: "ada@example.com", CustomerID: "cus_1"}), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := router()

	w := do(r, http.MethodGet, "/admin", token(t, identity.Session{UserID: 1, Email: "a@example.com", Role: "user"}), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/admin", token(t, identity.Session{UserID: 1, Email: "a@example.com", Role: "admin"}), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSanitizeInput(t *testing.T) {
	r := router()

	w := do(r, http.MethodPost, "/echo", "", `{"state":"<script>x</script>CA","n":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"CA","n":3}`, w.Body.String())

	w = do(r, http.MethodPost, "/echo", "", `{"state":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Malformed JSON"}`, w.Body.String())

	w = do(r, http.MethodPost, "/echo", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"empty"}`, w.Body.String())
}
