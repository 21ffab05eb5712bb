package domain

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addRequest struct {
	Hostname string `json:"hostname" binding:"required"`
}

type verifyRequest struct {
	Hostname string `json:"hostname" binding:"required"`
}

func registerRoutes(engine *gin.Engine, svc *Service) {
	g := engine.Group("/v1/tenants/:tenant_id/domains")
	g.GET("", func(c *gin.Context) {
		domains, err := svc.List(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"domains": domains})
	})

	g.POST("", func(c *gin.Context) {
		var req addRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		view, err := svc.Add(c.Request.Context(), c.Param("tenant_id"), req.Hostname)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, view)
	})

	g.POST("/verify", func(c *gin.Context) {
		var req verifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		view, err := svc.Verify(c.Request.Context(), c.Param("tenant_id"), req.Hostname)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, view)
	})
}
