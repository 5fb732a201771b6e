package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scrimbook/scrimbook/internal/store"
	"github.com/scrimbook/scrimbook/internal/workflow"
)

var handlerTimeout = 10 * time.Second

// waitForResponse waits for a command response with a timeout.
func waitForResponse(resp <-chan error) error {
	select {
	case err := <-resp:
		return err
	case <-time.After(handlerTimeout):
		return fmt.Errorf("request timed out")
	}
}

func (s *Server) workflowFromRequest(w http.ResponseWriter, r *http.Request) *workflow.Workflow {
	id := chi.URLParam(r, "workflowID")
	wf := s.sessions.Get(id)
	if wf == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no entry session %s", id))
	}
	return wf
}

// ask sends a command, waits for its response, and writes any failure. It
// returns false when the caller should stop.
func (s *Server) ask(w http.ResponseWriter, wf *workflow.Workflow, cmd workflow.Command, resp <-chan error) bool {
	wf.Send(cmd)
	if err := waitForResponse(resp); err != nil {
		s.writeError(w, statusFor(err), err)
		return false
	}
	return true
}

func statusFor(err error) int {
	var blocked *workflow.StepBlocked
	switch {
	case errors.Is(err, workflow.ErrRecordLocked):
		return http.StatusConflict
	case errors.As(err, &blocked):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// writeSnapshot reads the workflow's state and writes it with the given
// status, or a 504 when the loop never answers.
func (s *Server) writeSnapshot(w http.ResponseWriter, status int, wf *workflow.Workflow) {
	reply := make(chan workflow.Snapshot, 1)
	wf.Send(workflow.GetSnapshot{Reply: reply})
	select {
	case snap := <-reply:
		s.writeJSON(w, status, snap)
	case <-time.After(handlerTimeout):
		s.writeError(w, http.StatusGatewayTimeout, fmt.Errorf("request timed out"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func parseSide(raw string) (workflow.Side, bool) {
	side := workflow.Side(strings.ToUpper(raw))
	return side, side == workflow.SideBlue || side == workflow.SideRed
}

// --- entry session lifecycle ---

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf := s.sessions.Create()
	s.log.WithField("workflow", wf.ID()).Info("entry session created")
	s.writeSnapshot(w, http.StatusCreated, wf)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleCloseWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workflowID")
	if !s.sessions.Close(id) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no entry session %s", id))
		return
	}
	s.log.WithField("workflow", id).Info("entry session closed")
	w.WriteHeader(http.StatusNoContent)
}

// --- record mutation ---

func (s *Server) handleSetDetails(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		Date        time.Time `json:"date"`
		DurationSec int       `json:"durationSec"`
		ScrimType   string    `json:"scrimType"`
		Notes       string    `json:"notes"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetScheduling{
		Date:      body.Date,
		Duration:  time.Duration(body.DurationSec) * time.Second,
		ScrimType: workflow.ScrimType(body.ScrimType),
		Notes:     body.Notes,
		Response:  resp,
	}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		Mode string `json:"mode"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetMode{Mode: workflow.MatchMode(body.Mode), Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleSetTrackDraft(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		Enabled bool `json:"enabled"`
		Format  int  `json:"format"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetTrackDraft{Enabled: body.Enabled, Format: body.Format, Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleSetTeam(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		TeamID  int                    `json:"teamId"`
		NewTeam *workflow.NewTeamDraft `json:"newTeam"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetTeam{
		Key:      workflow.TeamSlotKey(chi.URLParam(r, "key")),
		TeamID:   body.TeamID,
		NewTeam:  body.NewTeam,
		Response: resp,
	}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleSetOurSide(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		Side string `json:"side"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	side, ok := parseSide(body.Side)
	if !ok {
		s.writeError(w, http.StatusBadRequest, workflow.ErrBadSide)
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetOurSide{Side: side, Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

// handleSetOutcome records the result: our own victory/defeat, or the
// winning team of an external match.
func (s *Server) handleSetOutcome(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		Result        string `json:"result"`
		WinningTeamID int    `json:"winningTeamId"`
		WinnerSide    string `json:"winnerSide"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	var cmd workflow.Command
	switch {
	case body.WinnerSide != "":
		side, ok := parseSide(body.WinnerSide)
		if !ok {
			s.writeError(w, http.StatusBadRequest, workflow.ErrBadSide)
			return
		}
		cmd = workflow.SetExternalWinner{Side: side, Response: resp}
	case body.WinningTeamID != 0:
		cmd = workflow.SetExternalWinner{TeamID: body.WinningTeamID, Response: resp}
	default:
		cmd = workflow.SetOwnResult{Result: workflow.Outcome(body.Result), Response: resp}
	}
	if !s.ask(w, wf, cmd, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

// --- draft board ---

func (s *Server) handleSetDraftFormat(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		Format int `json:"format"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetDraftFormat{Format: body.Format, Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func draftSlotParams(r *http.Request) (workflow.SlotKind, workflow.Side, int, error) {
	kind := workflow.SlotKind(chi.URLParam(r, "kind"))
	if kind != workflow.SlotKindPick && kind != workflow.SlotKindBan {
		return "", "", 0, fmt.Errorf("unknown slot kind %q", chi.URLParam(r, "kind"))
	}
	side, ok := parseSide(chi.URLParam(r, "side"))
	if !ok {
		return "", "", 0, workflow.ErrBadSide
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return "", "", 0, fmt.Errorf("bad slot index")
	}
	return kind, side, index, nil
}

func (s *Server) handleSetDraftHero(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	kind, side, index, err := draftSlotParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		HeroID int `json:"heroId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetDraftHero{
		Kind:     kind,
		Side:     side,
		Index:    index,
		HeroID:   body.HeroID,
		Response: resp,
	}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleAvailableHeroes(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	kind, side, index, err := draftSlotParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	reply := make(chan []workflow.Hero, 1)
	wf.Send(workflow.GetAvailableHeroes{Kind: kind, Side: side, Index: index, Reply: reply})
	select {
	case heroes := <-reply:
		if heroes == nil {
			heroes = []workflow.Hero{}
		}
		s.writeJSON(w, http.StatusOK, heroes)
	case <-time.After(handlerTimeout):
		s.writeError(w, http.StatusGatewayTimeout, fmt.Errorf("request timed out"))
	}
}

// --- slots, awards, files ---

func slotRefParams(r *http.Request) (workflow.SlotRef, error) {
	side, ok := parseSide(chi.URLParam(r, "side"))
	if !ok {
		return workflow.SlotRef{}, workflow.ErrBadSide
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return workflow.SlotRef{}, fmt.Errorf("bad slot index")
	}
	return workflow.SlotRef{Side: side, Index: index}, nil
}

func (s *Server) handleSetSlotPlayer(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	ref, err := slotRefParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		PlayerID int    `json:"playerId"`
		IGN      string `json:"ign"`
		Role     string `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetSlotPlayer{
		Ref:      ref,
		Player:   workflow.PlayerRef{PlayerID: body.PlayerID, IGN: body.IGN},
		Role:     workflow.Role(body.Role),
		Response: resp,
	}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleSetSlotStats(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	ref, err := slotRefParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var stats workflow.SlotStats
	if !decodeBody(w, r, &stats) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetSlotStats{Ref: ref, Stats: stats, Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleSetAwards(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		MVP     *workflow.SlotRef `json:"mvp"`
		MVPLoss *workflow.SlotRef `json:"mvpLoss"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.SetAwards{MVP: body.MVP, MVPLoss: body.MVPLoss, Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var att workflow.Attachment
	if !decodeBody(w, r, &att) {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.AddAttachment{Attachment: att, Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.RemoveAttachment{ID: chi.URLParam(r, "fileID"), Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

// --- navigation and submission ---

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.Advance{Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.Back{Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleJumpTo(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	var body struct {
		Step string `json:"step"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	step, ok := workflow.ParseStep(body.Step)
	if !ok {
		s.writeError(w, http.StatusBadRequest, workflow.ErrBadStep)
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.JumpTo{Step: step, Response: resp}, resp) {
		return
	}
	s.writeSnapshot(w, http.StatusOK, wf)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}
	resp := make(chan error, 1)
	if !s.ask(w, wf, workflow.Submit{Response: resp}, resp) {
		return
	}
	s.log.WithField("workflow", wf.ID()).Info("submission started")
	s.writeSnapshot(w, http.StatusAccepted, wf)
}

// --- directory and read API ---

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.store.ListTeams(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if teams == nil {
		teams = []store.Team{}
	}
	s.writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleListManagedTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.store.ListManagedTeams(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if teams == nil {
		teams = []store.Team{}
	}
	s.writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           string `json:"name"`
		Abbreviation   string `json:"abbreviation"`
		Category       string `json:"category"`
		IsOpponentOnly bool   `json:"isOpponentOnly"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" || body.Abbreviation == "" || len(body.Abbreviation) > workflow.MaxAbbreviationLen {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("name and abbreviation (max %d chars) are required", workflow.MaxAbbreviationLen))
		return
	}
	team := store.Team{
		Name:           body.Name,
		Abbreviation:   body.Abbreviation,
		Category:       body.Category,
		IsOpponentOnly: body.IsOpponentOnly,
	}
	if err := s.store.CreateTeam(r.Context(), &team); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, team)
}

func (s *Server) handleTeamRoster(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("bad team id"))
		return
	}
	players, err := s.store.TeamRoster(r.Context(), teamID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if players == nil {
		players = []store.Player{}
	}
	s.writeJSON(w, http.StatusOK, players)
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("bad team id"))
		return
	}
	var body struct {
		IGN  string  `json:"ign"`
		Role *string `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	player, err := s.store.AddPlayerToTeam(r.Context(), teamID, body.IGN, body.Role)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, player)
}

func (s *Server) handleListHeroes(w http.ResponseWriter, r *http.Request) {
	heroes, err := s.store.ListHeroes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if heroes == nil {
		heroes = []store.Hero{}
	}
	s.writeJSON(w, http.StatusOK, heroes)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	matches, err := s.store.ListMatches(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if matches == nil {
		matches = []store.Match{}
	}
	s.writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	match, err := s.store.GetMatchWithStats(r.Context(), matchID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if match == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no match %s", matchID))
		return
	}
	s.writeJSON(w, http.StatusOK, match)
}
