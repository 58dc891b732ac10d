package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	campus "github.com/lychee-technology/campus"
)

// mutationFunc decodes raw inputs and runs one mutation.
type mutationFunc func(ctx context.Context, auth campus.Authorizer, raw json.RawMessage) (any, error)

var errBadInput = errors.New("input must be an array of mutation inputs")

// bind adapts a typed service method to a mutationFunc.
func bind[In, N any](fn func(context.Context, campus.Authorizer, []In) ([]N, error)) mutationFunc {
	return func(ctx context.Context, auth campus.Authorizer, raw json.RawMessage) (any, error) {
		var inputs []In
		if err := json.Unmarshal(raw, &inputs); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadInput, err)
		}
		return fn(ctx, auth, inputs)
	}
}

func mutationTable(svc campus.MutationService) map[string]mutationFunc {
	return map[string]mutationFunc{
		"createAgeRanges":                   bind(svc.CreateAgeRanges),
		"updateAgeRanges":                   bind(svc.UpdateAgeRanges),
		"deleteAgeRanges":                   bind(svc.DeleteAgeRanges),
		"deleteGrades":                      bind(svc.DeleteGrades),
		"createCategories":                  bind(svc.CreateCategories),
		"updateCategories":                  bind(svc.UpdateCategories),
		"deleteCategories":                  bind(svc.DeleteCategories),
		"addSubcategoriesToCategories":      bind(svc.AddSubcategoriesToCategories),
		"removeSubcategoriesFromCategories": bind(svc.RemoveSubcategoriesFromCategories),
		"createSubcategories":               bind(svc.CreateSubcategories),
		"deleteSubcategories":               bind(svc.DeleteSubcategories),
		"createSchools":                     bind(svc.CreateSchools),
		"updateSchools":                     bind(svc.UpdateSchools),
		"deleteSchools":                     bind(svc.DeleteSchools),
		"addUsersToSchools":                 bind(svc.AddUsersToSchools),
		"reactivateUsersFromSchools":        bind(svc.ReactivateUsersFromSchools),
		"removeUsersFromSchools":            bind(svc.RemoveUsersFromSchools),
		"deleteUsersFromSchools":            bind(svc.DeleteUsersFromSchools),
		"addUsersToOrganizations":           bind(svc.AddUsersToOrganizations),
		"removeUsersFromOrganizations":      bind(svc.RemoveUsersFromOrganizations),
		"createAcademicTerms":               bind(svc.CreateAcademicTerms),
		"deleteAcademicTerms":               bind(svc.DeleteAcademicTerms),
	}
}

// handleMutation handles POST /api/v1/mutations/{mutation}
func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "mutation")
	run, ok := s.mutations[name]
	if !ok {
		writeError(w, http.StatusNotFound, "ERR_UNKNOWN_MUTATION", fmt.Sprintf("unknown mutation %q", name))
		return
	}

	userID, admin, err := callerFromHeaders(r.Header)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "ERR_UNAUTHENTICATED", err.Error())
		return
	}

	var req mutationRequest
	if err := readJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "ERR_INVALID_BODY", err.Error())
		return
	}

	out, err := run(r.Context(), s.authorizer(userID, admin), req.Input)
	if errors.Is(err, errBadInput) {
		writeError(w, http.StatusBadRequest, "ERR_INVALID_BODY", err.Error())
		return
	}
	if err != nil {
		status, apiErrs, visible := statusFor(err)
		if !visible || status >= http.StatusInternalServerError {
			zap.S().Errorw("mutation failed", "mutation", name, "userId", userID, "err", err)
		}
		writeJSON(w, status, mutationResponse{Errors: apiErrs})
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Data: out})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			zap.S().Warnw("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorizerFunc builds the request-scoped authorizer for a caller.
type authorizerFunc func(userID uuid.UUID, admin bool) campus.Authorizer
