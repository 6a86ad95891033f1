package handlers

import (
	"RetinaCare/services"

	"github.com/gin-gonic/gin"
)

type PharmacyHandler struct {
	service *services.PharmacyService
}

func NewPharmacyHandler(service *services.PharmacyService) *PharmacyHandler {
	return &PharmacyHandler{service: service}
}

func (h *PharmacyHandler) AddMedicine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		Name         string  `json:"name"`
		Unit         string  `json:"unit"`
		Price        float64 `json:"price"`
		InitialStock int     `json:"initial_stock"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	medicine, err := h.service.AddMedicine(c.Request.Context(), actor, body.Name, body.Unit, body.Price, body.InitialStock)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, medicine)
}

func (h *PharmacyHandler) UpdateMedicine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		Name  string  `json:"name"`
		Unit  string  `json:"unit"`
		Price float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	medicine, err := h.service.UpdateMedicine(c.Request.Context(), actor, c.Param("id"), body.Name, body.Unit, body.Price)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, medicine)
}

func (h *PharmacyHandler) Restock(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	newStock, err := h.service.Restock(c.Request.Context(), actor, c.Param("id"), body.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"stock_quantity": newStock})
}

func (h *PharmacyHandler) ListMedicines(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	medicines, err := h.service.ListMedicines(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, medicines)
}

func (h *PharmacyHandler) GetMedicine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	medicine, err := h.service.GetMedicine(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, medicine)
}
