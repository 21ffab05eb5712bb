package membership

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type inviteRequest struct {
	Email string `json:"email" binding:"required"`
	Role  Role   `json:"role"`
}

type acceptRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func registerRoutes(engine *gin.Engine, svc *Service) {
	g := engine.Group("/v1/tenants/:tenant_id/members")

	g.GET("", func(c *gin.Context) {
		members, err := svc.List(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": members})
	})

	g.POST("", func(c *gin.Context) {
		var req inviteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		view, err := svc.Invite(c.Request.Context(), c.Param("tenant_id"), req.Email, req.Role)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, view)
	})

	g.POST("/accept", func(c *gin.Context) {
		var req acceptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		view, err := svc.Accept(c.Request.Context(), c.Param("tenant_id"), req.Email, req.Code)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, view)
	})

	g.POST("/:member_id/deactivate", func(c *gin.Context) {
		if err := svc.Deactivate(c.Request.Context(), c.Param("tenant_id"), c.Param("member_id")); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.POST("/:member_id/reactivate", func(c *gin.Context) {
		if err := svc.Reactivate(c.Request.Context(), c.Param("tenant_id"), c.Param("member_id")); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.DELETE("/:member_id", func(c *gin.Context) {
		if err := svc.Remove(c.Request.Context(), c.Param("tenant_id"), c.Param("member_id")); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
