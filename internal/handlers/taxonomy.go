package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/services"
)

type TaxonomyHandler struct {
	taxonomyService services.TaxonomyService
}

func NewTaxonomyHandler(taxonomyService services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

// GET /api/taxonomy/proposals
func (th *TaxonomyHandler) ListPending(c *gin.Context) {
	RespondOK(c, gin.H{"proposals": th.taxonomyService.PendingProposals(c.Request.Context())})
}

// POST /api/taxonomy/proposals/:id/approve
func (th *TaxonomyHandler) Approve(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid proposal id"))
		return
	}
	if err := th.taxonomyService.ApproveProposal(c.Request.Context(), proposalID); err != nil {
		// Missing parent unit is a dependency-ordering conflict, not a server
		// fault: the reviewer approves the unit proposal first and retries.
		if errors.Is(err, services.ErrParentUnitNotFound) {
			RespondError(c, http.StatusConflict, "parent_unit_not_found", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "approve_failed", err)
		return
	}
	RespondOK(c, gin.H{"approved": proposalID})
}

// POST /api/taxonomy/proposals/:id/reject
func (th *TaxonomyHandler) Reject(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid proposal id"))
		return
	}
	if err := th.taxonomyService.RejectProposal(c.Request.Context(), proposalID); err != nil {
		RespondError(c, http.StatusBadRequest, "reject_failed", err)
		return
	}
	RespondOK(c, gin.H{"rejected": proposalID})
}
