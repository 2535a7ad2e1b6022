package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
)

// CheckoutHandler exposes the session entry points.
type CheckoutHandler struct {
	facade SessionFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade SessionFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Open handles POST /api/v1/checkout/sessions. The order id comes from the
// JSON body or the order_id query parameter.
func (h *CheckoutHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		orderID = strings.TrimSpace(c.Query("order_id"))
	}

	snap, token, err := h.facade.OpenSession(c.Request.Context(), orderID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	middleware.SetSessionCookie(c, token)
	c.JSON(http.StatusCreated, dto.OpenSessionResponse{Token: token, Session: toSessionResponse(snap)})
}

// Get handles GET /api/v1/checkout/sessions/:id.
func (h *CheckoutHandler) Get(c *gin.Context) {
	snap, err := h.facade.Snapshot(CurrentSessionID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(snap))
}

// SelectMethod handles POST /api/v1/checkout/sessions/:id/method.
func (h *CheckoutHandler) SelectMethod(c *gin.Context) {
	var req dto.MethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}
	h.respond(c, func() (model.Snapshot, error) {
		return h.facade.SelectMethod(CurrentSessionID(c), model.PaymentMethod(req.Method))
	})
}

// Back handles POST /api/v1/checkout/sessions/:id/back.
func (h *CheckoutHandler) Back(c *gin.Context) {
	h.respond(c, func() (model.Snapshot, error) {
		return h.facade.Back(CurrentSessionID(c))
	})
}

// UpdateForm handles PUT /api/v1/checkout/sessions/:id/form.
func (h *CheckoutHandler) UpdateForm(c *gin.Context) {
	var req dto.FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}
	h.respond(c, func() (model.Snapshot, error) {
		return h.facade.UpdateForm(CurrentSessionID(c), toFormValues(req))
	})
}

// Submit handles POST /api/v1/checkout/sessions/:id/submit. Gateway
// rejections are not request errors: they come back as the error view.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var req dto.FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}
	h.respond(c, func() (model.Snapshot, error) {
		return h.facade.SubmitForm(c.Request.Context(), CurrentSessionID(c), model.PaymentMethod(req.Method), toFormValues(req))
	})
}

// Retry handles POST /api/v1/checkout/sessions/:id/retry.
func (h *CheckoutHandler) Retry(c *gin.Context) {
	h.respond(c, func() (model.Snapshot, error) {
		return h.facade.Retry(c.Request.Context(), CurrentSessionID(c))
	})
}

// Close handles DELETE /api/v1/checkout/sessions/:id.
func (h *CheckoutHandler) Close(c *gin.Context) {
	if err := h.facade.CloseSession(CurrentSessionID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	middleware.ClearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *CheckoutHandler) respond(c *gin.Context, op func() (model.Snapshot, error)) {
	snap, err := op()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(snap))
}
