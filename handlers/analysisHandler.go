package handlers

import (
	"RetinaCare/services"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	service *services.AnalysisService
}

func NewAnalysisHandler(service *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// CreatePendingRecord receives the AI collaborator's output: a risk score
// and a reference to the annotated image it already stored.
func (h *AnalysisHandler) CreatePendingRecord(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		PatientID      string  `json:"patient_id"`
		RiskScore      float64 `json:"risk_score"`
		AnnotatedImage string  `json:"annotated_image"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	record, err := h.service.CreatePendingRecord(c.Request.Context(), actor, body.PatientID, body.RiskScore, body.AnnotatedImage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, record)
}

func (h *AnalysisHandler) ListPendingRecords(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	records, err := h.service.ListPendingRecords(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, records)
}

func (h *AnalysisHandler) GetRecord(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, record)
}

func (h *AnalysisHandler) ListPatientRecords(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	records, err := h.service.ListPatientRecords(c.Request.Context(), actor, c.Param("patient_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, records)
}

// Validate records the doctor's decision on a pending analysis.
func (h *AnalysisHandler) Validate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		Approved bool   `json:"approved"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	record, err := h.service.Validate(c.Request.Context(), actor, c.Param("id"), body.Approved, body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, record)
}
