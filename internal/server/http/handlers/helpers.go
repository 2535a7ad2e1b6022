package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
)

// CurrentSessionID extracts the token-bound session identifier from context.
func CurrentSessionID(c *gin.Context) string {
	return c.GetString(middleware.SessionIDContextKey)
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domainErrors.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainErrors.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domainErrors.ErrInvalidForm):
		status = http.StatusUnprocessableEntity
	}

	message := http.StatusText(status)
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		message = err.Error()
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}

func toSessionResponse(snap model.Snapshot) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:          snap.SessionID,
		View:        string(snap.View),
		Terminal:    snap.View.Terminal(),
		OrderID:     snap.OrderID,
		Method:      string(snap.Method),
		CardNetwork: string(snap.CardNetwork),
		PaymentID:   snap.PaymentID,
		Error:       snap.ErrorMessage,
		UpdatedAt:   snap.UpdatedAt,
	}
	if snap.Order != nil {
		resp.Order = &dto.OrderResponse{
			ID:            snap.Order.ID,
			Amount:        snap.Order.Amount,
			Currency:      snap.Order.Currency,
			DisplayAmount: snap.Order.DisplayAmount(),
		}
	}
	if form := snap.Form; form != (model.FormValues{}) {
		resp.Form = &dto.FormResponse{
			VPA:        form.VPA,
			CardNumber: dto.MaskCardNumber(form.CardNumber),
			Expiry:     form.Expiry,
			HolderName: form.HolderName,
		}
	}
	if p := snap.Payment; p != nil {
		resp.Payment = &dto.PaymentResponse{
			ID:          p.ID,
			Status:      string(p.Status),
			Method:      string(p.Method),
			Amount:      p.Amount,
			Currency:    p.Currency,
			VPA:         p.VPA,
			CardNetwork: p.CardNetwork,
			CardLast4:   p.CardLast4,
			CreatedAt:   p.CreatedAt,
		}
	}
	return resp
}

func toFormValues(req dto.FormRequest) model.FormValues {
	return model.FormValues{
		VPA:        req.VPA,
		CardNumber: req.Number,
		Expiry:     req.Expiry,
		CVV:        req.CVV,
		HolderName: req.Name,
	}
}
