package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handler) listCategories(c *gin.Context) {
	categories, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// listProducts treats the "all" category as no filter.
func (h *handler) listProducts(c *gin.Context) {
	category := c.Query("category")
	if category == "all" {
		category = ""
	}
	products, err := h.deps.ProductSvc.List(c.Request.Context(), category)
	if err != nil {
		h.writeError(c, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": views})
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductView(*p)})
}
