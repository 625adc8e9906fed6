package api

import (
	"encoding/json"
	"net/http"

	"geotz/internal/geoip"
	"geotz/internal/tzerr"

	"github.com/joomcode/errorx"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf：错误类型到 HTTP 状态码
func statusOf(err error) int {
	switch {
	case tzerr.IsInvalidInput(err), errorx.IsOfType(err, geoip.BadIP):
		return http.StatusBadRequest
	case errorx.IsOfType(err, geoip.NotFound):
		return http.StatusNotFound
	case errorx.IsOfType(err, geoip.Disabled):
		return http.StatusNotImplemented
	case tzerr.IsInitialization(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func kindOf(err error) string {
	if e := errorx.Cast(err); e != nil {
		return e.Type().FullName()
	}
	return ""
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), errorBody{Error: err.Error(), Kind: kindOf(err)})
}
