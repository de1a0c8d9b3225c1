package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Tabula/internal/formula"
	"github.com/shaiso/Tabula/internal/repo"
	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeInvalidCellName   ErrorCode = "INVALID_CELL_NAME"
	ErrCodeInvalidFormula    ErrorCode = "INVALID_FORMULA"
	ErrCodeCircularReference ErrorCode = "CIRCULAR_REFERENCE"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует ошибку хранилища или таблицы в HTTP ответ.
// Возвращает false, если err == nil.
//
//	repo.ErrNotFound                 → 404
//	repo.ErrAlreadyExists            → 409
//	spreadsheet.ErrInvalidName       → 400 INVALID_CELL_NAME (и ErrDuplicateName)
//	formula.ErrFormulaFormat         → 400 INVALID_FORMULA
//	spreadsheet.ErrCircularReference → 409 CIRCULAR_REFERENCE
//	остальное                        → 500
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, notFoundMsg)
	case errors.Is(err, repo.ErrAlreadyExists):
		Error(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, spreadsheet.ErrInvalidName):
		Error(w, http.StatusBadRequest, ErrCodeInvalidCellName, err.Error())
	case errors.Is(err, formula.ErrFormulaFormat):
		Error(w, http.StatusBadRequest, ErrCodeInvalidFormula, err.Error())
	case errors.Is(err, spreadsheet.ErrCircularReference):
		Error(w, http.StatusConflict, ErrCodeCircularReference, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}
