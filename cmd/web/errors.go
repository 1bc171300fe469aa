package main

import (
	"net/http"

	"github.com/AdamBeresnev/op-ladder/internal/httputil"
	"github.com/AdamBeresnev/op-ladder/internal/service"
)

// serviceError maps an engine error onto its HTTP status. Validation and
// conflict errors are caller mistakes or contention and are not logged as faults.
func serviceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case service.IsNotFound(err):
		httputil.JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case service.IsValidation(err):
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case service.IsConflict(err):
		httputil.Conflict(w, err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}
