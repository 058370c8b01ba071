package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/services"
)

// OfferHandler serves one offer kind. The router mounts one per kind.
type OfferHandler struct {
	kind   models.OfferKind
	offers *services.OfferService
	log    *zap.Logger
}

func NewOfferHandler(kind models.OfferKind, offers *services.OfferService, log *zap.Logger) *OfferHandler {
	return &OfferHandler{kind: kind, offers: offers, log: log}
}

type partySummary struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type jobSummary struct {
	ID          string              `json:"_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Budget      decimal.NullDecimal `json:"budget"`
	Location    string              `json:"location"`
	Status      models.JobStatus    `json:"status"`
	PostedBy    partySummary        `json:"postedBy"`
}

// nestedOffer is the proposal listing shape: the flat view plus the job and
// contractor as sub-objects.
type nestedOffer struct {
	models.OfferView
	Job        jobSummary   `json:"job"`
	Contractor partySummary `json:"contractor"`
}

func nest(v models.OfferView) nestedOffer {
	return nestedOffer{
		OfferView: v,
		Job: jobSummary{
			ID:          v.JobID,
			Title:       v.JobTitle,
			Description: v.JobDescription,
			Budget:      v.JobBudget,
			Location:    v.JobLocation,
			Status:      v.JobStatus,
			PostedBy:    partySummary{ID: v.JobPosterID, Name: v.JobPosterName},
		},
		Contractor: partySummary{ID: v.ContractorID, Name: v.ContractorName},
	}
}

// Create submits a pending offer
// POST /api/applications, POST /api/proposals
func (h *OfferHandler) Create(c *gin.Context) {
	var req models.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.offers.CreateOffer(c.Request.Context(), h.kind, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create "+string(h.kind))
		return
	}

	c.JSON(http.StatusCreated, view)
}

// List returns offers of this kind, optionally narrowed by job or contractor
// GET /api/applications?jobId=&contractorId=
func (h *OfferHandler) List(c *gin.Context) {
	views, err := h.offers.ListOffers(c.Request.Context(), models.OfferFilter{
		Kind:         h.kind,
		JobID:        c.Query("jobId"),
		ContractorID: c.Query("contractorId"),
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch "+string(h.kind)+"s")
		return
	}

	if h.kind != models.OfferKindProposal {
		c.JSON(http.StatusOK, views)
		return
	}

	nested := make([]nestedOffer, 0, len(views))
	for _, v := range views {
		nested = append(nested, nest(v))
	}
	c.JSON(http.StatusOK, nested)
}

// Get returns a single offer
// GET /api/applications/:id
func (h *OfferHandler) Get(c *gin.Context) {
	view, err := h.offers.GetOffer(c.Request.Context(), h.kind, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch "+string(h.kind))
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateStatus accepts, rejects or withdraws an offer
// PATCH /api/applications/:id {"status": "accepted"}
func (h *OfferHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.offers.SetStatus(c.Request.Context(), h.kind, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err, "Failed to update "+string(h.kind))
		return
	}

	c.JSON(http.StatusOK, view)
}
