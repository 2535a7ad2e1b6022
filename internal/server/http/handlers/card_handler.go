package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/checkout/internal/server/http/dto"
)

// CardHandler serves the card network badge.
type CardHandler struct {
	facade CardFacade
}

// NewCardHandler constructs CardHandler.
func NewCardHandler(facade CardFacade) *CardHandler {
	return &CardHandler{facade: facade}
}

// Network handles GET /api/v1/card-networks?number=&vpa=.
func (h *CardHandler) Network(c *gin.Context) {
	inspection := h.facade.InspectCard(c.Query("number"))
	resp := dto.CardNetworkResponse{
		Network:   string(inspection.Network),
		LuhnValid: inspection.LuhnValid,
	}
	if vpa, ok := c.GetQuery("vpa"); ok {
		valid := h.facade.InspectVPA(vpa)
		resp.VPAValid = &valid
	}
	c.JSON(http.StatusOK, resp)
}
