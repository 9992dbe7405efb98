package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"vcontest/internal/api/middleware"
	"vcontest/internal/app/service"
	"vcontest/internal/common"
)

type ContestHandler struct {
	contestService *service.ContestService
	log            logrus.FieldLogger
}

func NewContestHandler(cs *service.ContestService, log logrus.FieldLogger) *ContestHandler {
	return &ContestHandler{contestService: cs, log: log}
}

func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	// Public
	r.Get("/get/{contestID}", h.getContest)
	r.Get("/recent", h.listRecent)

	r.Group(func(auth chi.Router) {
		auth.Use(middleware.RequireUser)
		auth.Post("/create", h.createContest)
		auth.Post("/update", h.updateContest)
		auth.Post("/item/update", h.replaceProblems)
		auth.Get("/my", h.listOwned)
		auth.Get("/joined", h.listJoined)
		auth.Post("/join", h.joinContest)
		auth.Post("/leave", h.leaveContest)
	})
}

func (h *ContestHandler) createContest(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req service.CreateContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.contestService.Create(r.Context(), userID, req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ContestHandler) updateContest(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req service.UpdateContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.contestService.Update(r.Context(), userID, req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, emptyObject)
}

func (h *ContestHandler) replaceProblems(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req service.ReplaceProblemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.contestService.ReplaceProblems(r.Context(), userID, req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, emptyObject)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	detail, err := h.contestService.Get(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *ContestHandler) listRecent(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.ListRecent(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) listOwned(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	contests, err := h.contestService.ListOwned(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) listJoined(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	contests, err := h.contestService.ListJoined(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) joinContest(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req service.MembershipRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.contestService.Join(r.Context(), userID, req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, emptyObject)
}

func (h *ContestHandler) leaveContest(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req service.MembershipRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.contestService.Leave(r.Context(), userID, req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, emptyObject)
}
