// Package api serves the progression operations over REST.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"questline/server/account"
	"questline/server/auth"
	"questline/server/balance"
	"questline/server/battle"
	"questline/shared/game/types"
	"questline/shared/protocol"
)

type Handlers struct {
	svc *account.Service
}

func New(svc *account.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Register mounts every endpoint on mux behind requireAuth.
func (h *Handlers) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(fn))
	}
	route("GET /api/profile", h.HandleProfile)
	route("GET /api/bosses", h.HandleBosses)
	route("GET /api/battle", h.HandleBattle)
	route("POST /api/battle/start", h.HandleStartBattle)
	route("POST /api/battle/engage", h.HandleEngage)
	route("POST /api/battle/damage", h.HandleDamage)
	route("POST /api/battle/forfeit", h.HandleForfeit)
	route("POST /api/battle/mechanic", h.HandleMechanic)
	route("GET /api/skills", h.HandleSkills)
	route("POST /api/skills/unlock", h.HandleUnlock)
	route("POST /api/skills/reset", h.HandleReset)
	route("GET /api/skills/effects", h.HandleEffects)
}

func userID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorMsg{Message: "Invalid JSON"})
		return false
	}
	return true
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *types.IneligibleError
	switch {
	case errors.As(err, &ie):
		status := http.StatusConflict
		if ie.Reason == types.ReasonNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, protocol.ErrorMsg{Message: err.Error(), Reason: string(ie.Reason)})
	case errors.Is(err, battle.ErrNoActiveBattle), errors.Is(err, battle.ErrNotPreparing):
		writeJSON(w, http.StatusConflict, protocol.ErrorMsg{Message: err.Error()})
	case errors.Is(err, battle.ErrDamageOutOfRange):
		writeJSON(w, http.StatusBadRequest, protocol.ErrorMsg{Message: err.Error()})
	default:
		log.Printf("API: %s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, protocol.ErrorMsg{Message: "internal error"})
	}
}

func (h *Handlers) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) HandleBosses(w http.ResponseWriter, r *http.Request) {
	bosses, err := h.svc.Bosses(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bosses": bosses})
}

// HandleBattle returns the most recent battle, or 204 when none was started.
func (h *Handlers) HandleBattle(w http.ResponseWriter, r *http.Request) {
	st, ok, err := h.svc.Battle(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) HandleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req protocol.ChallengeBoss
	if !decode(w, r, &req) {
		return
	}
	if req.BossID == "" {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorMsg{Message: "bossId required"})
		return
	}
	st, err := h.svc.Challenge(r.Context(), userID(r), req.BossID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handlers) HandleEngage(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Engage(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) HandleDamage(w http.ResponseWriter, r *http.Request) {
	var req protocol.CompleteTask
	if !decode(w, r, &req) {
		return
	}
	if req.BaseDamage > balance.MaxBaseDamage {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorMsg{Message: "baseDamage too large"})
		return
	}
	out, err := h.svc.CompleteTask(r.Context(), userID(r), req.BaseDamage, battle.Modifiers{
		CompletedInTime:  req.CompletedInTime,
		MaintainedStreak: req.MaintainedStreak,
		PerfectAccuracy:  req.PerfectAccuracy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleForfeit(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Forfeit(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.Forfeited{OK: ok})
}

func (h *Handlers) HandleMechanic(w http.ResponseWriter, r *http.Request) {
	var req protocol.CheckMechanic
	if !decode(w, r, &req) {
		return
	}
	violated, err := h.svc.CheckMechanic(r.Context(), userID(r), types.MechanicType(req.Type), req.Observed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.MechanicResult{Type: req.Type, Violated: violated})
}

func (h *Handlers) HandleSkills(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Skills(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	var req protocol.UnlockSkill
	if !decode(w, r, &req) {
		return
	}
	if req.TreeID == "" || req.NodeID == "" {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorMsg{Message: "treeId and nodeId required"})
		return
	}
	out, err := h.svc.Unlock(r.Context(), userID(r), req.TreeID, req.NodeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req protocol.ResetTree
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.ResetTree(r.Context(), userID(r), req.TreeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleEffects(w http.ResponseWriter, r *http.Request) {
	effects, err := h.svc.Effects(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.Effects{Effects: effects})
}
