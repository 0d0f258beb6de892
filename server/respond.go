package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError 按错误类型映射状态码：无效输入 400，不存在 404，文本理解失败 502，其余 500。
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = http.StatusText(status)
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, engine.ErrQueryProcessing):
		return http.StatusBadGateway
	case core.IsInvalidInput(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsNotSupported(err):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
