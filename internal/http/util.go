package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"neela-data/internal/service"
	"neela-data/internal/workflow"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readBodyJSON 空 body 视为零值
func readBodyJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %w", service.ErrValidation, err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", service.ErrValidation, err)
	}
	return nil
}

// statusFor 错误 -> HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, workflow.ErrNoApplication),
		errors.Is(err, workflow.ErrEmptyAssignee),
		errors.Is(err, workflow.ErrEmptyMessage),
		errors.Is(err, workflow.ErrInvalidAuthor),
		errors.Is(err, workflow.ErrInvalidStatus),
		errors.Is(err, workflow.ErrEmptyAttachment),
		errors.Is(err, workflow.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrScreeningInProgress),
		errors.Is(err, workflow.ErrOperationInProgress),
		errors.Is(err, workflow.ErrLeaseLocked),
		errors.Is(err, workflow.ErrNotAssigned),
		errors.Is(err, workflow.ErrAttachmentTooEarly),
		errors.Is(err, service.ErrEnvelopeSigned),
		errors.Is(err, service.ErrEnvelopeVoided):
		return http.StatusConflict
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	} else {
		logger.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, Fail(err.Error()))
}

// respond 成功写 Ok，失败按错误类型映射
func respond[T any](w http.ResponseWriter, logger *zap.Logger, r *http.Request, v T, err error) {
	if err != nil {
		writeError(w, logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(v))
}
