package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("parties", "/parties")
	group.GET("/:id", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/parties/42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/parties/42").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("payments", "/payments")
		assert.Equal(t, "payments", g.Name())
		assert.Equal(t, "/payments", g.Prefix())
	})

	t.Run("chained GET and POST", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("payments", "/payments")
		g.POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
			GET("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/payments").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/payments/1").Code)
	})

	t.Run("middleware only wraps its group", func(t *testing.T) {
		engine := gin.New()
		api := engine.Group("/api/v1")

		limited := NewDomainGroup("payments", "/payments")
		limited.Use(func(c *gin.Context) {
			c.Header("X-Limited", "yes")
			c.Next()
		})
		limited.POST("", func(c *gin.Context) { c.Status(http.StatusCreated) })
		limited.RegisterRoutes(api)

		open := NewDomainGroup("parties", "/parties")
		open.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		open.RegisterRoutes(api)

		assert.Equal(t, "yes", serve(engine, http.MethodPost, "/api/v1/payments").Header().Get("X-Limited"))
		assert.Empty(t, serve(engine, http.MethodGet, "/api/v1/parties").Header().Get("X-Limited"))
	})

	t.Run("subgroups nest prefixes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("ledger", "")
		g.Group("bank-accounts", "/bank-accounts").
			GET("/:id/transactions", func(c *gin.Context) { c.String(http.StatusOK, "txns") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/bank-accounts/7/transactions")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "txns", w.Body.String())
	})
}
