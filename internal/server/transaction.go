package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
)

func (s *Server) ListTransactions(c *gin.Context) {
	filter := ledgerdomain.ListRequest{
		CashierID: strings.TrimSpace(c.Query("cashier_id")),
		Status:    ledgerdomain.Status(strings.TrimSpace(c.Query("status"))),
		Kind:      ledgerdomain.Kind(strings.TrimSpace(c.Query("kind"))),
		PageToken: c.Query("page_token"),
	}
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		filter.PageSize, _ = strconv.Atoi(raw)
	}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("from", "invalid_timestamp", "invalid from timestamp"))
			return
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("to", "invalid_timestamp", "invalid to timestamp"))
			return
		}
		filter.To = &to
	}

	page, err := s.ledgerSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) GetTransactionByID(c *gin.Context) {
	detail, err := s.ledgerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) GetTransactionByNumber(c *gin.Context) {
	detail, err := s.ledgerSvc.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	filter := auditdomain.ListRequest{
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
		EntityID:   strings.TrimSpace(c.Query("entity_id")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}

	logs, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
