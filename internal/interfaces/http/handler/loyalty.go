package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	loyaltyapp "github.com/pluvyt/backend/internal/application/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// PointsHandler handles point transaction endpoints
type PointsHandler struct {
	BaseHandler
	pointsService *loyaltyapp.PointsService
}

// NewPointsHandler creates a new PointsHandler
func NewPointsHandler(pointsService *loyaltyapp.PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

// PointTransactionListQuery holds the filters of a transaction listing
type PointTransactionListQuery struct {
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Kind     string `form:"kind" binding:"omitempty,oneof=CREDIT DEBIT REVERSAL"`
	Origin   string `form:"origin" binding:"omitempty,oneof=MANUAL REDEMPTION ADJUSTMENT PROMO OTHER"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// Create handles POST /point-transactions
// @Summary      Record a point transaction
// @Tags         point-transactions
// @Accept       json
// @Produce      json
// @Param        request body loyaltyapp.CreatePointTransactionRequest true "Transaction"
// @Success      201 {object} dto.Response{data=loyaltyapp.PointTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /point-transactions [post]
func (h *PointsHandler) Create(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}

	var req loyaltyapp.CreatePointTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.pointsService.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// List handles GET /point-transactions
// @Summary      List point transactions
// @Tags         point-transactions
// @Produce      json
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        kind query string false "CREDIT, DEBIT or REVERSAL"
// @Param        origin query string false "Origin"
// @Param        page query integer false "Page"
// @Param        page_size query integer false "Page size"
// @Success      200 {object} dto.Response{data=[]loyaltyapp.PointTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /point-transactions [get]
func (h *PointsHandler) List(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}

	var q PointTransactionListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := loyaltyapp.PointTransactionListFilter{
		ClientID: optionalUUID(q.ClientID),
		Kind:     q.Kind,
		Origin:   q.Origin,
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	txs, total, err := h.pointsService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paging := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, txs, total, paging.Page, paging.PageSize)
}

// Get handles GET /point-transactions/:id
// @Summary      Get a point transaction
// @Tags         point-transactions
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} dto.Response{data=loyaltyapp.PointTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /point-transactions/{id} [get]
func (h *PointsHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	tx, err := h.pointsService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Reverse handles DELETE /point-transactions/:id. Ledger entries are never
// removed; the credit is compensated by a REVERSAL entry instead.
// @Summary      Reverse a credit
// @Tags         point-transactions
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Param        request body loyaltyapp.ReversePointTransactionRequest false "Optional note"
// @Success      200 {object} dto.Response{data=loyaltyapp.PointTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /point-transactions/{id} [delete]
func (h *PointsHandler) Reverse(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req loyaltyapp.ReversePointTransactionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.BadRequest(c, "Invalid request body")
			return
		}
	}

	tx, err := h.pointsService.Reverse(c.Request.Context(), tenantID, id, actor, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// ClientHandler handles loyalty client endpoints
type ClientHandler struct {
	BaseHandler
	clientService *loyaltyapp.ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService *loyaltyapp.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// ClientListQuery holds paging and ordering of a client listing
type ClientListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at balance person_id"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Enroll handles POST /clients
// @Summary      Enroll a loyalty client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body loyaltyapp.EnrollClientRequest true "Person"
// @Success      201 {object} dto.Response{data=loyaltyapp.ClientResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Enroll(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}

	var req loyaltyapp.EnrollClientRequest
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.Enroll(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// List handles GET /clients
// @Summary      List loyalty clients
// @Tags         clients
// @Produce      json
// @Param        page query integer false "Page"
// @Param        page_size query integer false "Page size"
// @Param        order_by query string false "created_at, updated_at, balance or person_id"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} dto.Response{data=[]loyaltyapp.ClientResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}

	var q ClientListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}.Normalize()

	clients, total, err := h.clientService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, clients, total, filter.Page, filter.PageSize)
}

// Get handles GET /clients/:id
// @Summary      Get a loyalty client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=loyaltyapp.ClientResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	client, err := h.clientService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// History handles GET /clients/:id/transactions
// @Summary      Ledger history of a client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]loyaltyapp.PointTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients/{id}/transactions [get]
func (h *ClientHandler) History(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.clientService.History(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// Audit handles GET /clients/:id/audit
// @Summary      Replay the ledger of a client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=loyaltyapp.LedgerAudit}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients/{id}/audit [get]
func (h *ClientHandler) Audit(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	audit, err := h.clientService.Audit(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, audit)
}
