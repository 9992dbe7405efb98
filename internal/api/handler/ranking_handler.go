package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"vcontest/internal/app/service"
	"vcontest/internal/common"
	"vcontest/internal/domain/model"
)

type RankingHandler struct {
	rankingService *service.RankingService
	log            logrus.FieldLogger
}

func NewRankingHandler(rs *service.RankingService, log logrus.FieldLogger) *RankingHandler {
	return &RankingHandler{rankingService: rs, log: log}
}

func (h *RankingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/streak_ranking", h.rangeHandler(model.RankingStreak))
	r.Get("/user/streak_rank", h.userRankHandler(model.RankingStreak))
	r.Get("/ac_ranking", h.rangeHandler(model.RankingAccepted))
	r.Get("/user/ac_rank", h.userRankHandler(model.RankingAccepted))
	r.Get("/rated_point_sum_ranking", h.rangeHandler(model.RankingRatedPointSum))
	r.Get("/user/rated_point_sum_rank", h.userRankHandler(model.RankingRatedPointSum))
}

func (h *RankingHandler) rangeHandler(kind model.RankingKind) http.HandlerFunc {
	field := kind.ValueField()
	return func(w http.ResponseWriter, r *http.Request) {
		from, ok := parseIndex(r, "from")
		if !ok {
			common.RespondWithError(w, http.StatusBadRequest, "from must be a non-negative integer")
			return
		}
		to, ok := parseIndex(r, "to")
		if !ok {
			common.RespondWithError(w, http.StatusBadRequest, "to must be a non-negative integer")
			return
		}

		entries, err := h.rankingService.Range(r.Context(), kind, from, to)
		if err != nil {
			respondError(w, r, h.log, err)
			return
		}
		rows := make([]map[string]interface{}, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, map[string]interface{}{"user_id": e.UserID, field: e.Value})
		}
		common.RespondWithJSON(w, http.StatusOK, rows)
	}
}

func (h *RankingHandler) userRankHandler(kind model.RankingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user == "" {
			common.RespondWithError(w, http.StatusBadRequest, "user is required")
			return
		}
		rank, err := h.rankingService.UserRank(r.Context(), kind, user)
		if err != nil {
			respondError(w, r, h.log, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, rank)
	}
}

func parseIndex(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
