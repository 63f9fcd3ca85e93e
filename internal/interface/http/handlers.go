package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/application/command"
	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/scheduler"
	"github.com/clube-hub/club-progress-hub/pkg/logger"
	"github.com/clube-hub/club-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Club Progress Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":   "/health",
			"members":  "/api/v1/members",
			"progress": "/api/v1/progress/submit",
			"rankings": "/api/v1/rankings/{scope}",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerMemberRequest struct {
	ClubID      string `json:"club_id"`
	UnitID      string `json:"unit_id,omitempty"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	BirthDate   string `json:"birth_date"` // YYYY-MM-DD
	Password    string `json:"password"`
}

// handleRegisterMember handles POST /api/v1/members
func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	birthDate, err := timeutil.ParseDate(req.BirthDate)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "birth_date must be YYYY-MM-DD")
		return
	}

	cmd := command.RegisterMemberCommand{
		ClubID:      req.ClubID,
		UnitID:      req.UnitID,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		BirthDate:   birthDate,
		Password:    req.Password,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.RegisterMemberHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "register member", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"member_id":    result.Member.ID,
		"display_name": result.Member.DisplayName,
		"club_id":      result.Member.ClubID,
		"role":         result.Member.Role,
	})
}

type manageMemberRequest struct {
	ActorID string `json:"actor_id"`
	ClubID  string `json:"club_id,omitempty"`
	UnitID  string `json:"unit_id,omitempty"`
}

// handleDeactivateMember handles POST /api/v1/members/{id}/deactivate
func (s *Server) handleDeactivateMember(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")
	var req manageMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.deps.ManageMemberHandler.Deactivate(r.Context(), req.ActorID, memberID); err != nil {
		s.writeCommandError(w, r, "deactivate member", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"member_id": memberID, "status": "inactive"})
}

// handleReactivateMember handles POST /api/v1/members/{id}/reactivate
func (s *Server) handleReactivateMember(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")
	var req manageMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.deps.ManageMemberHandler.Reactivate(r.Context(), req.ActorID, memberID); err != nil {
		s.writeCommandError(w, r, "reactivate member", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"member_id": memberID, "status": "active"})
}

// handleTransferMember handles POST /api/v1/members/{id}/transfer
func (s *Server) handleTransferMember(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")
	var req manageMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.ClubID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "club_id is required")
		return
	}

	if err := s.deps.ManageMemberHandler.Transfer(r.Context(), req.ActorID, memberID, req.ClubID, req.UnitID); err != nil {
		s.writeCommandError(w, r, "transfer member", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"member_id": memberID,
		"club_id":   req.ClubID,
		"unit_id":   req.UnitID,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS & REVIEW HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type submitAnswerRequest struct {
	MemberID string            `json:"member_id"`
	ItemID   string            `json:"item_id"`
	Text     string            `json:"text,omitempty"`
	FileRef  string            `json:"file_ref,omitempty"`
	Quiz     map[string]string `json:"quiz,omitempty"`
}

// handleSubmitAnswer handles POST /api/v1/progress/submit
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.SubmitAnswerCommand{
		MemberID: req.MemberID,
		ItemID:   req.ItemID,
		Text:     req.Text,
		FileRef:  req.FileRef,
		Quiz:     req.Quiz,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.SubmitAnswerHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "submit answer", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id":    result.Record.MemberID,
		"item_id":      result.Record.ItemID,
		"status":       result.Record.Status,
		"resubmission": result.Resubmission,
	})
}

type reviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	MemberID   string `json:"member_id"`
	ItemID     string `json:"item_id"`
	Reason     string `json:"reason,omitempty"`
}

// handleApprove handles POST /api/v1/progress/approve
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.ApproveCommand{
		ReviewerID: req.ReviewerID,
		MemberID:   req.MemberID,
		ItemID:     req.ItemID,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ReviewProgressHandler.Approve(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "approve progress", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleReject handles POST /api/v1/progress/reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.RejectCommand{
		ReviewerID: req.ReviewerID,
		MemberID:   req.MemberID,
		ItemID:     req.ItemID,
		Reason:     req.Reason,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ReviewProgressHandler.Reject(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "reject progress", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRevoke handles POST /api/v1/progress/revoke
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.RevokeApprovalCommand{
		ReviewerID: req.ReviewerID,
		MemberID:   req.MemberID,
		ItemID:     req.ItemID,
		Reason:     req.Reason,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.RevokeApprovalHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "revoke approval", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetProgress handles GET /api/v1/members/{id}/progress/{itemID}
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")
	itemID := r.PathValue("itemID")

	view, err := s.deps.GetProgressHandler.Get(r.Context(), memberID, itemID)
	if err != nil {
		s.writeCommandError(w, r, "get progress", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleListProgress handles GET /api/v1/members/{id}/progress
func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")

	records, err := s.deps.GetProgressHandler.ListByMember(r.Context(), memberID)
	if err != nil {
		s.writeCommandError(w, r, "list progress", err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// ══════════════════════════════════════════════════════════════════════════════
// SPECIALTY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListCompletions handles GET /api/v1/members/{id}/specialties
func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")

	completions, err := s.deps.GetCompletionHandler.ListByMember(r.Context(), memberID)
	if err != nil {
		s.writeCommandError(w, r, "list completions", err)
		return
	}

	writeJSON(w, http.StatusOK, completions)
}

// handleGetCompletion handles GET /api/v1/members/{id}/specialties/{specialtyID}
func (s *Server) handleGetCompletion(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")
	specialtyID := r.PathValue("specialtyID")

	completion, err := s.deps.GetCompletionHandler.Get(r.Context(), memberID, specialtyID)
	if err != nil {
		s.writeCommandError(w, r, "get completion", err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

type awardSpecialtyRequest struct {
	ActorID     string `json:"actor_id"`
	MemberID    string `json:"member_id"`
	SpecialtyID string `json:"specialty_id"`
	Reason      string `json:"reason,omitempty"`
}

// handleAwardSpecialty handles POST /api/v1/specialties/award
func (s *Server) handleAwardSpecialty(w http.ResponseWriter, r *http.Request) {
	var req awardSpecialtyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.AwardSpecialtyCommand{
		ActorID:     req.ActorID,
		MemberID:    req.MemberID,
		SpecialtyID: req.SpecialtyID,
		Reason:      req.Reason,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.deps.AwardSpecialtyHandler.Handle(r.Context(), cmd); err != nil {
		s.writeCommandError(w, r, "award specialty", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"member_id":    req.MemberID,
		"specialty_id": req.SpecialtyID,
		"status":       "completed",
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// POINTS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetBalance handles GET /api/v1/members/{id}/balance
// Query params: period (day|week|month|year) - с периодом сумма очков
// считается по журналу за окно, без него отдаётся кешированный баланс.
func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")

	if period := getQueryParam(r, "period", ""); period != "" {
		from, to, err := timeutil.PeriodWindow(period, timeutil.Now())
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "period must be day, week, month or year")
			return
		}
		points, err := s.deps.GetBalanceHandler.PointsInWindow(r.Context(), memberID, from.UTC(), to.UTC())
		if err != nil {
			s.writeCommandError(w, r, "get window points", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"member_id": memberID,
			"period":    period,
			"points":    points,
		})
		return
	}

	balance, err := s.deps.GetBalanceHandler.Balance(r.Context(), memberID)
	if err != nil {
		s.writeCommandError(w, r, "get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id": memberID,
		"balance":   balance,
	})
}

// handleGetLedger handles GET /api/v1/members/{id}/ledger
// Query params: source, from, to (RFC 3339), limit, offset.
func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")

	filter := ledger.HistoryFilter{
		Source: ledger.Source(getQueryParam(r, "source", "")),
		Limit:  getQueryParamInt(r, "limit", 50),
		Offset: getQueryParamInt(r, "offset", 0),
	}
	if from := getQueryParam(r, "from", ""); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "from must be RFC 3339")
			return
		}
		filter.From = t
	}
	if to := getQueryParam(r, "to", ""); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "to must be RFC 3339")
			return
		}
		filter.To = t
	}

	view, err := s.deps.GetBalanceHandler.History(r.Context(), memberID, filter)
	if err != nil {
		s.writeCommandError(w, r, "get ledger history", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type adjustPointsRequest struct {
	ActorID  string `json:"actor_id"`
	MemberID string `json:"member_id"`
	Amount   int    `json:"amount"`
	Reason   string `json:"reason"`
}

// handleAdjustPoints handles POST /api/v1/points/adjust
func (s *Server) handleAdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req adjustPointsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.AdjustPointsCommand{
		ActorID:  req.ActorID,
		MemberID: req.MemberID,
		Amount:   req.Amount,
		Reason:   req.Reason,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := s.deps.AdjustPointsHandler.Adjust(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "adjust points", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id": req.MemberID,
		"balance":   balance,
	})
}

type bulkAwardRequest struct {
	ActorID    string   `json:"actor_id"`
	MemberIDs  []string `json:"member_ids"`
	Amount     int      `json:"amount"`
	ActivityID string   `json:"activity_id"`
	Reason     string   `json:"reason,omitempty"`
}

// handleBulkAward handles POST /api/v1/points/bulk-award
func (s *Server) handleBulkAward(w http.ResponseWriter, r *http.Request) {
	var req bulkAwardRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.BulkAwardCommand{
		ActorID:    req.ActorID,
		MemberIDs:  req.MemberIDs,
		Amount:     req.Amount,
		ActivityID: req.ActivityID,
		Reason:     req.Reason,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.BulkAwardHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "bulk award", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetRanking handles GET /api/v1/rankings/{scope}
// Query params: scope_id, bracket (junior|senior), period (day|week|month|year), limit.
func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request) {
	params := ranking.Params{
		Scope:   ranking.Scope(r.PathValue("scope")),
		ScopeID: getQueryParam(r, "scope_id", ""),
		Bracket: member.AgeBracket(getQueryParam(r, "bracket", "")),
		Limit:   getQueryParamInt(r, "limit", 0),
	}

	if period := getQueryParam(r, "period", ""); period != "" {
		from, to, err := timeutil.PeriodWindow(period, timeutil.Now())
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "period must be day, week, month or year")
			return
		}
		params.Window = ranking.Window{From: from.UTC(), To: to.UTC()}
	}

	standings, err := s.deps.GetRankingHandler.Handle(r.Context(), params)
	if err != nil {
		s.writeCommandError(w, r, "get ranking", err)
		return
	}

	writeJSON(w, http.StatusOK, standings)
}

// handleGetGroupRanking handles GET /api/v1/rankings/{scope}/groups
func (s *Server) handleGetGroupRanking(w http.ResponseWriter, r *http.Request) {
	scope := ranking.Scope(r.PathValue("scope"))
	scopeID := getQueryParam(r, "scope_id", "")

	groups, err := s.deps.GetRankingHandler.Groups(r.Context(), scope, scopeID)
	if err != nil {
		s.writeCommandError(w, r, "get group ranking", err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type resetBalanceRequest struct {
	ActorID  string `json:"actor_id"`
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

// handleResetBalance handles POST /admin/points/reset
func (s *Server) handleResetBalance(w http.ResponseWriter, r *http.Request) {
	var req resetBalanceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.ResetBalanceCommand{
		ActorID:  req.ActorID,
		MemberID: req.MemberID,
		Reason:   req.Reason,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.deps.AdjustPointsHandler.ResetBalance(r.Context(), cmd); err != nil {
		s.writeCommandError(w, r, "reset balance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id": req.MemberID,
		"balance":   0,
	})
}

type deleteHistoryRequest struct {
	ActorID  string `json:"actor_id"`
	MemberID string `json:"member_id"`
	ItemID   string `json:"item_id"`
	Reason   string `json:"reason"`
}

// handleDeleteHistory handles POST /admin/history/delete
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	var req deleteHistoryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.DeleteHistoryCommand{
		ActorID:  req.ActorID,
		MemberID: req.MemberID,
		ItemID:   req.ItemID,
		Reason:   req.Reason,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.DeleteHistoryHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "delete history", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRecomputeBalance handles POST /admin/balances/{id}/recompute
func (s *Server) handleRecomputeBalance(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")

	result, err := s.deps.RecomputeBalanceHandler.Handle(r.Context(), memberID)
	if err != nil {
		s.writeCommandError(w, r, "recompute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListJobs handles GET /admin/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scheduler is not configured")
		return
	}

	writeJSON(w, http.StatusOK, s.deps.Jobs.ListJobs())
}

// handleRunJob handles POST /admin/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scheduler is not configured")
		return
	}

	jobName := r.PathValue("name")
	result, err := s.deps.Jobs.RunNow(r.Context(), jobName)
	if err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Unknown job: "+jobName)
			return
		}
		s.logger.Error("job execution failed", logger.Err(err), logger.String("job", jobName))
		writeJSONError(w, http.StatusInternalServerError, "job_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeJSON decodes the request body into dst and writes a 400 on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}

// writeCommandError maps domain errors to HTTP status codes.
func (s *Server) writeCommandError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFromError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			logger.String("op", op),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
	}
	writeJSONError(w, status, code, err.Error())
}

// statusFromError maps shared error categories to HTTP status codes.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrNotAuthorized), errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrInvalidTransition),
		errors.Is(err, shared.ErrInvalidState),
		errors.Is(err, shared.ErrAlreadyProcessed),
		errors.Is(err, shared.ErrConcurrentModification):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, shared.ErrExpired):
		return http.StatusConflict, "expired"
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrValueOutOfRange):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrTimeout):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
