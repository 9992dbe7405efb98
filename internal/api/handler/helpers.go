package handler

import (
	"encoding/json"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"vcontest/internal/common"
)

var emptyObject = struct{}{}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

// respondError writes err and logs it when it maps to a server-side failure.
func respondError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	code := common.RespondWithDomainError(w, err)
	if code >= http.StatusInternalServerError {
		log.WithFields(logrus.Fields{
			"request_id": chiMiddleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
			"status":     code,
		}).WithError(err).Error("request failed")
	}
}
