package apikey

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type issueRequest struct {
	KeyType APIKeyType `json:"key_type"`
	Scopes  []string   `json:"scopes"`
}

func registerRoutes(engine *gin.Engine, svc *Service) {
	g := engine.Group("/v1/tenants/:tenant_id/apikeys")

	g.GET("", func(c *gin.Context) {
		keys, err := svc.List(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"api_keys": keys})
	})

	g.POST("", func(c *gin.Context) {
		var req issueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		view, err := svc.Issue(c.Request.Context(), c.Param("tenant_id"), req.KeyType, req.Scopes)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, view)
	})

	g.DELETE("/:key_id", func(c *gin.Context) {
		if err := svc.Revoke(c.Request.Context(), c.Param("tenant_id"), c.Param("key_id")); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
