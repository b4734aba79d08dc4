package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/services"
)

type fakeTaxonomyService struct {
	approveErr error
	rejectErr  error
	pending    []services.PendingProposal
}

func (f *fakeTaxonomyService) PendingProposals(ctx context.Context) []services.PendingProposal {
	return f.pending
}

func (f *fakeTaxonomyService) ApproveProposal(ctx context.Context, id uuid.UUID) error {
	return f.approveErr
}

func (f *fakeTaxonomyService) RejectProposal(ctx context.Context, id uuid.UUID) error {
	return f.rejectErr
}

func taxonomyTestRouter(svc services.TaxonomyService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewTaxonomyHandler(svc)
	router.GET("/taxonomy/proposals", h.ListPending)
	router.POST("/taxonomy/proposals/:id/approve", h.Approve)
	router.POST("/taxonomy/proposals/:id/reject", h.Reject)
	return router
}

func TestApproveMapsMissingParentToConflict(t *testing.T) {
	router := taxonomyTestRouter(&fakeTaxonomyService{approveErr: services.ErrParentUnitNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/taxonomy/proposals/"+uuid.NewString()+"/approve", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != "parent_unit_not_found" {
		t.Fatalf("code = %q, want parent_unit_not_found", envelope.Error.Code)
	}
}

func TestApproveRejectsBadProposalID(t *testing.T) {
	router := taxonomyTestRouter(&fakeTaxonomyService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/taxonomy/proposals/not-a-uuid/approve", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestApproveOtherErrorsAreBadRequest(t *testing.T) {
	router := taxonomyTestRouter(&fakeTaxonomyService{approveErr: fmt.Errorf("proposal x is already approved")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/taxonomy/proposals/"+uuid.NewString()+"/approve", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListPendingAlwaysReturnsArray(t *testing.T) {
	router := taxonomyTestRouter(&fakeTaxonomyService{pending: []services.PendingProposal{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/taxonomy/proposals", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Proposals []services.PendingProposal `json:"proposals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Proposals == nil {
		t.Fatal("proposals should be an empty array, not null")
	}
}
