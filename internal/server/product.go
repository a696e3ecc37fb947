package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	"github.com/smallbiznis/tillpoint/pkg/money"
)

type createProductRequest struct {
	Barcode      string  `json:"barcode"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Category     string  `json:"category"`
	Price        string  `json:"price"`
	Cost         string  `json:"cost"`
	StockQty     int64   `json:"stock_quantity"`
	ReorderLevel int64   `json:"reorder_level"`
	TaxRate      float64 `json:"tax_rate"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	priceCents, err := money.Parse(req.Price)
	if err != nil {
		AbortWithError(c, newValidationError("price", "invalid_price", "invalid price"))
		return
	}
	var costCents int64
	if strings.TrimSpace(req.Cost) != "" {
		costCents, err = money.Parse(req.Cost)
		if err != nil {
			AbortWithError(c, newValidationError("cost", "invalid_price", "invalid cost"))
			return
		}
	}

	product, err := s.productSvc.Create(c.Request.Context(), productdomain.CreateProductRequest{
		Barcode:      req.Barcode,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		PriceCents:   priceCents,
		CostCents:    costCents,
		StockQty:     req.StockQty,
		ReorderLevel: req.ReorderLevel,
		TaxRate:      req.TaxRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
			ActorID:    user.ID,
			ActorName:  user.Username,
			Action:     "product.create",
			EntityType: "product",
			EntityID:   product.ID.String(),
			Detail:     map[string]interface{}{"barcode": product.Barcode},
		})
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

type updateProductRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Price        *string  `json:"price"`
	Cost         *string  `json:"cost"`
	ReorderLevel *int64   `json:"reorder_level"`
	TaxRate      *float64 `json:"tax_rate"`
	Active       *bool    `json:"is_active"`
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := productdomain.UpdateProductRequest{
		ID:           c.Param("id"),
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		ReorderLevel: req.ReorderLevel,
		TaxRate:      req.TaxRate,
		Active:       req.Active,
	}
	if req.Price != nil {
		cents, err := money.Parse(*req.Price)
		if err != nil {
			AbortWithError(c, newValidationError("price", "invalid_price", "invalid price"))
			return
		}
		update.PriceCents = &cents
	}
	if req.Cost != nil {
		cents, err := money.Parse(*req.Cost)
		if err != nil {
			AbortWithError(c, newValidationError("cost", "invalid_price", "invalid cost"))
			return
		}
		update.CostCents = &cents
	}

	product, err := s.productSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (s *Server) GetProductByID(c *gin.Context) {
	product, err := s.productSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (s *Server) GetProductByBarcode(c *gin.Context) {
	product, err := s.productSvc.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (s *Server) ListProducts(c *gin.Context) {
	filter := productdomain.ListProductRequest{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		Barcode:  c.Query("barcode"),
		LowStock: c.Query("low_stock") == "true",
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	products, err := s.productSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type adjustStockRequest struct {
	Change int64  `json:"change"`
	Note   string `json:"note"`
}

func (s *Server) AdjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	adjust := productdomain.AdjustStockRequest{
		ID:     c.Param("id"),
		Change: req.Change,
		Note:   req.Note,
	}
	if user, ok := currentUser(c); ok {
		adjust.ActorID = user.ID.String()
	}

	product, err := s.productSvc.AdjustStock(c.Request.Context(), adjust)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
			ActorID:    user.ID,
			ActorName:  user.Username,
			Action:     "product.adjust_stock",
			EntityType: "product",
			EntityID:   product.ID.String(),
			Detail: map[string]interface{}{
				"change": req.Change,
				"note":   req.Note,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (s *Server) ListStockMovements(c *gin.Context) {
	product, err := s.productSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	movements, err := s.movements.ListByProduct(c.Request.Context(), s.db, product.ID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements})
}
