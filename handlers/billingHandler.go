package handlers

import (
	"RetinaCare/services"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	service *services.BillingService
}

func NewBillingHandler(service *services.BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

// GetInvoice returns the live computation while the record is open, the
// frozen figures once paid.
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	invoice, err := h.service.ComputeInvoice(c.Request.Context(), actor, c.Param("record_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, invoice)
}

// ConfirmPayment freezes the invoice and closes the record.
func (h *BillingHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	invoice, err := h.service.ConfirmPayment(c.Request.Context(), actor, c.Param("record_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, invoice)
}
