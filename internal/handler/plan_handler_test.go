package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/course-planner-api/internal/dto"
	appErrors "github.com/campusdesk/course-planner-api/pkg/errors"
)

type planGeneratorMock struct {
	captured    dto.GeneratePlanRequest
	capturedID  string
	lockRequest dto.UpdateLocksRequest
	getErr      error
	response    *dto.GeneratePlanResponse
}

func (m *planGeneratorMock) Generate(ctx context.Context, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	m.captured = req
	return m.response, nil
}

func (m *planGeneratorMock) GetProposal(id string) (*dto.GeneratePlanResponse, error) {
	m.capturedID = id
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.response, nil
}

func (m *planGeneratorMock) UpdateLocks(ctx context.Context, proposalID string, req dto.UpdateLocksRequest) (*dto.GeneratePlanResponse, error) {
	m.capturedID = proposalID
	m.lockRequest = req
	return m.response, nil
}

func validPlanPayload() []byte {
	payload, _ := json.Marshal(dto.GeneratePlanRequest{
		TermID: "2026-FA",
		Student: dto.StudentProfileRequest{
			ID:      "stu-1",
			MajorID: "BUS-BA",
		},
	})
	return payload
}

func TestPlanHandlerGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planGeneratorMock{response: &dto.GeneratePlanResponse{ProposalID: "proposal-1", Status: dto.PlanStatusOK}}
	handler := &PlanHandler{service: mockSvc}

	req, _ := http.NewRequest(http.MethodPost, "/plans", bytes.NewReader(validPlanPayload()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "2026-FA", mockSvc.captured.TermID)
	require.Contains(t, w.Body.String(), "proposal-1")
}

func TestPlanHandlerGenerateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &PlanHandler{service: &planGeneratorMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/plans", bytes.NewReader([]byte(`{"termId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanHandlerGetExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planGeneratorMock{getErr: appErrors.Clone(appErrors.ErrProposalExpired, "")}
	handler := &PlanHandler{service: mockSvc}
	router := gin.New()
	router.GET("/plans/:proposalId", handler.Get)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/plans/proposal-9", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusGone, w.Code)
	require.Equal(t, "proposal-9", mockSvc.capturedID)
}

func TestPlanHandlerUpdateLocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planGeneratorMock{response: &dto.GeneratePlanResponse{ProposalID: "proposal-1", Status: dto.PlanStatusLockConflict}}
	handler := &PlanHandler{service: mockSvc}
	router := gin.New()
	router.PUT("/plans/:proposalId/locks", handler.UpdateLocks)

	payload, _ := json.Marshal(dto.UpdateLocksRequest{LockedSectionIDs: []string{"BUS-201-A"}})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/plans/proposal-1/locks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "proposal-1", mockSvc.capturedID)
	require.Equal(t, []string{"BUS-201-A"}, mockSvc.lockRequest.LockedSectionIDs)
	require.Contains(t, w.Body.String(), string(dto.PlanStatusLockConflict))
}
