package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/order"
)

func (h *handler) createOrder(c *gin.Context) {
	var in order.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		orderSubmissions.WithLabelValues(domain.CodeInvalidInput).Inc()
		h.writeError(c, domain.NewInvalidInput("Invalid order payload: "+err.Error()))
		return
	}

	o, err := h.deps.OrderSvc.Create(c.Request.Context(), in)
	if err != nil {
		orderSubmissions.WithLabelValues(domain.CodeOf(err)).Inc()
		h.writeError(c, err)
		return
	}
	orderSubmissions.WithLabelValues("OK").Inc()
	c.JSON(http.StatusCreated, gin.H{"order": toOrderView(*o)})
}

func (h *handler) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderView(*o)})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handler) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.NewInvalidInput("Invalid status payload: "+err.Error()))
		return
	}

	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	orderStatusChanges.WithLabelValues(o.Status.String()).Inc()
	c.JSON(http.StatusOK, gin.H{"order": toOrderView(*o)})
}
