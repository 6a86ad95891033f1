package handlers

import (
	"RetinaCare/services"

	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	service *services.ExamService
}

func NewExamHandler(service *services.ExamService) *ExamHandler {
	return &ExamHandler{service: service}
}

// CreateExam opens a medical record from the acting doctor's exam.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body struct {
		PatientID string  `json:"patient_id"`
		Diagnosis string  `json:"diagnosis"`
		Notes     string  `json:"notes"`
		ExamFee   float64 `json:"exam_fee"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	record, err := h.service.CreateExam(c.Request.Context(), actor, body.PatientID, body.Diagnosis, body.Notes, body.ExamFee)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, record)
}

func (h *ExamHandler) GetRecord(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), actor, c.Param("record_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, record)
}

func (h *ExamHandler) ListPatientRecords(c *gin.Context) {
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

func (h *ExamHandler) ListAllRecords(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	records, err := h.service.ListAllRecords(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, records)
}
