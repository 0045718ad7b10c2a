package handler

import (
	"github.com/gin-gonic/gin"
	orderingapp "github.com/pluvyt/backend/internal/application/ordering"
)

// ComandaHandler handles comanda endpoints, including the public guest order
type ComandaHandler struct {
	BaseHandler
	comandaService *orderingapp.ComandaService
}

// NewComandaHandler creates a new ComandaHandler
func NewComandaHandler(comandaService *orderingapp.ComandaService) *ComandaHandler {
	return &ComandaHandler{comandaService: comandaService}
}

// ComandaListQuery holds the filters of a comanda listing
type ComandaListQuery struct {
	Status  string `form:"status" binding:"omitempty,oneof=OPEN CLOSED PAID CANCELLED"`
	TableID string `form:"table_id" binding:"omitempty,uuid"`
}

// Open handles POST /comandas
// @Summary      Open a comanda
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        request body orderingapp.OpenComandaRequest true "Comanda"
// @Success      201 {object} dto.Response{data=orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /comandas [post]
func (h *ComandaHandler) Open(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}

	var req orderingapp.OpenComandaRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comanda, err := h.comandaService.Open(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, comanda)
}

// OpenPublic handles POST /public/comandas. The tenant comes from the body
// since guests carry no token.
// @Summary      Place a guest order
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        request body orderingapp.PublicOrderRequest true "Guest order"
// @Success      201 {object} dto.Response{data=orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /public/comandas [post]
func (h *ComandaHandler) OpenPublic(c *gin.Context) {
	var req orderingapp.PublicOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comanda, err := h.comandaService.OpenPublic(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, comanda)
}

// List handles GET /comandas
// @Summary      List comandas
// @Tags         comandas
// @Produce      json
// @Param        status query string false "OPEN, CLOSED, PAID or CANCELLED"
// @Param        table_id query string false "Table ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /comandas [get]
func (h *ComandaHandler) List(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}

	var q ComandaListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	comandas, err := h.comandaService.List(c.Request.Context(), tenantID, orderingapp.ComandaListFilter{
		Status:  q.Status,
		TableID: optionalUUID(q.TableID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comandas)
}

// Get handles GET /comandas/:id
// @Summary      Get a comanda
// @Tags         comandas
// @Produce      json
// @Param        id path string true "Comanda ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /comandas/{id} [get]
func (h *ComandaHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	comanda, err := h.comandaService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comanda)
}

// AddItem handles POST /comandas/:id/itens
// @Summary      Add an item to a comanda
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        id path string true "Comanda ID" format(uuid)
// @Param        request body orderingapp.OrderItemInput true "Item"
// @Success      201 {object} dto.Response{data=orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /comandas/{id}/itens [post]
func (h *ComandaHandler) AddItem(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req orderingapp.OrderItemInput
	if !h.bindJSON(c, &req) {
		return
	}

	comanda, err := h.comandaService.AddItem(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, comanda)
}

// RemoveItem handles DELETE /comandas/:id/itens/:itemId
// @Summary      Remove an item from a comanda
// @Tags         comandas
// @Produce      json
// @Param        id path string true "Comanda ID" format(uuid)
// @Param        itemId path string true "Item ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /comandas/{id}/itens/{itemId} [delete]
func (h *ComandaHandler) RemoveItem(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}

	comanda, err := h.comandaService.RemoveItem(c.Request.Context(), tenantID, id, itemID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comanda)
}

// SetItemStatus handles PATCH /comandas/:id/itens/:itemId/status
// @Summary      Move an item through the kitchen
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        id path string true "Comanda ID" format(uuid)
// @Param        itemId path string true "Item ID" format(uuid)
// @Param        request body orderingapp.UpdateItemStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /comandas/{id}/itens/{itemId}/status [patch]
func (h *ComandaHandler) SetItemStatus(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}

	var req orderingapp.UpdateItemStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comanda, err := h.comandaService.SetItemStatus(c.Request.Context(), tenantID, id, itemID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comanda)
}

// Transition handles PATCH /comandas/:id/status
// @Summary      Change the status of a comanda
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        id path string true "Comanda ID" format(uuid)
// @Param        request body orderingapp.UpdateComandaStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=orderingapp.ComandaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /comandas/{id}/status [patch]
func (h *ComandaHandler) Transition(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req orderingapp.UpdateComandaStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comanda, err := h.comandaService.Transition(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comanda)
}

// TableHandler handles table (mesa) endpoints
type TableHandler struct {
	BaseHandler
	tableService *orderingapp.TableService
}

// NewTableHandler creates a new TableHandler
func NewTableHandler(tableService *orderingapp.TableService) *TableHandler {
	return &TableHandler{tableService: tableService}
}

// Create handles POST /mesas
// @Summary      Create a table
// @Tags         mesas
// @Accept       json
// @Produce      json
// @Param        request body orderingapp.CreateTableRequest true "Table"
// @Success      201 {object} dto.Response{data=orderingapp.TableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mesas [post]
func (h *TableHandler) Create(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}

	var req orderingapp.CreateTableRequest
	if !h.bindJSON(c, &req) {
		return
	}

	table, err := h.tableService.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, table)
}

// List handles GET /mesas
// @Summary      List tables
// @Tags         mesas
// @Produce      json
// @Success      200 {object} dto.Response{data=[]orderingapp.TableResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mesas [get]
func (h *TableHandler) List(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}

	tables, err := h.tableService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tables)
}

// Get handles GET /mesas/:id
// @Summary      Get a table
// @Tags         mesas
// @Produce      json
// @Param        id path string true "Table ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderingapp.TableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mesas/{id} [get]
func (h *TableHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	table, err := h.tableService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, table)
}

// Update handles PUT /mesas/:id
// @Summary      Update a table
// @Tags         mesas
// @Accept       json
// @Produce      json
// @Param        id path string true "Table ID" format(uuid)
// @Param        request body orderingapp.UpdateTableRequest true "Table"
// @Success      200 {object} dto.Response{data=orderingapp.TableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mesas/{id} [put]
func (h *TableHandler) Update(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req orderingapp.UpdateTableRequest
	if !h.bindJSON(c, &req) {
		return
	}

	table, err := h.tableService.Update(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, table)
}

// SetStatus handles PATCH /mesas/:id/status
// @Summary      Change the status of a table
// @Tags         mesas
// @Accept       json
// @Produce      json
// @Param        id path string true "Table ID" format(uuid)
// @Param        request body orderingapp.SetTableStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=orderingapp.TableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mesas/{id}/status [patch]
func (h *TableHandler) SetStatus(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req orderingapp.SetTableStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	table, err := h.tableService.SetStatus(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, table)
}

// Delete handles DELETE /mesas/:id
// @Summary      Delete a table
// @Tags         mesas
// @Produce      json
// @Param        id path string true "Table ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mesas/{id} [delete]
func (h *TableHandler) Delete(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tableService.Delete(c.Request.Context(), tenantID, id, actor); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Close handles POST /mesas/:id/close: every active comanda is settled and
// the table freed in one step.
// @Summary      Close a table
// @Tags         mesas
// @Produce      json
// @Param        id path string true "Table ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderingapp.CloseTableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mesas/{id}/close [post]
func (h *TableHandler) Close(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.tableService.CloseTable(c.Request.Context(), tenantID, id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
