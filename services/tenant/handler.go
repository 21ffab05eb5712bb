package tenant

import (
	"net/http"

	"tenantadmin-controlplane/pkg/db/pagination"
	"tenantadmin-controlplane/pkg/errutil"
	"tenantadmin-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Name             string `json:"name" binding:"required"`
	Slug             string `json:"slug"`
	StripeCustomerID string `json:"stripe_customer_id"`
}

type updateRequest struct {
	Name      *string `json:"name"`
	SeatLimit *int    `json:"seat_limit"`
}

func registerRoutes(engine *gin.Engine, svc *Service) {
	g := engine.Group("/v1/tenants")

	g.GET("", func(c *gin.Context) {
		var page pagination.Pagination
		if err := c.ShouldBindQuery(&page); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tenants, err := svc.List(c.Request.Context(), page)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tenants": tenants})
	})

	g.POST("", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		view, err := svc.Create(c.Request.Context(), CreateInput{
			Name:             req.Name,
			Slug:             req.Slug,
			StripeCustomerID: req.StripeCustomerID,
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, view)
	})

	g.GET("/:tenant_id", func(c *gin.Context) {
		view, err := svc.Get(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, view)
	})

	g.PATCH("/:tenant_id", func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// The seat override is a platform-mode operation.
		if req.SeatLimit != nil {
			ec := middleware.FromContext(c.Request.Context())
			if !ec.IsSuperAdmin || ec.Mode != middleware.ModePlatform {
				c.Error(errutil.Forbidden("seat override requires platform mode"))
				return
			}
		}

		view, err := svc.Update(c.Request.Context(), c.Param("tenant_id"), UpdateInput{
			Name:      req.Name,
			SeatLimit: req.SeatLimit,
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, view)
	})

	g.POST("/:tenant_id/archive", func(c *gin.Context) {
		if err := svc.Archive(c.Request.Context(), c.Param("tenant_id")); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.POST("/:tenant_id/logo", func(c *gin.Context) {
		file, err := c.FormFile("logo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "logo file is required"})
			return
		}

		view, err := svc.UploadLogo(c.Request.Context(), c.Param("tenant_id"), file)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, view)
	})
}
