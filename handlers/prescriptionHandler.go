package handlers

import (
	"RetinaCare/services"

	"github.com/gin-gonic/gin"
)

type PrescriptionHandler struct {
	service *services.PrescriptionService
}

func NewPrescriptionHandler(service *services.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{service: service}
}

type prescriptionItemInput struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int    `json:"quantity"`
}

// AddItems applies a cart of line items one by one. Reservation is per
// item: an item that fails reports its error in place without rolling back
// the items already dispensed.
func (h *PrescriptionHandler) AddItems(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		Items []prescriptionItemInput `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Items) == 0 {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	recordID := c.Param("record_id")
	type itemResult struct {
		MedicineID string      `json:"medicine_id"`
		Item       interface{} `json:"item,omitempty"`
		Error      string      `json:"error,omitempty"`
	}

	results := make([]itemResult, 0, len(body.Items))
	anyOK := false
	var firstErr error
	for _, in := range body.Items {
		item, err := h.service.AddItem(c.Request.Context(), actor, recordID, in.MedicineID, in.Quantity)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			results = append(results, itemResult{MedicineID: in.MedicineID, Error: err.Error()})
			continue
		}
		anyOK = true
		results = append(results, itemResult{MedicineID: in.MedicineID, Item: item})
	}

	// A cart where every item failed answers with the first failure's
	// status, so a denied caller sees 403 rather than a generic conflict.
	status := 201
	if !anyOK {
		status = statusForError(firstErr)
	}
	c.JSON(status, gin.H{"results": results})
}

func (h *PrescriptionHandler) ListItems(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), actor, c.Param("record_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, items)
}
