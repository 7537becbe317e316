package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"recap/internal/core"
	"recap/internal/log"

	json "github.com/goccy/go-json"
)

const readyTimeout = 2 * time.Second

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleSummary computes recaps of the uploaded records without storing them.
// A single ?year= returns one summary; ?years= returns a list.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	years, err := requestYears(r, s.defaultYear)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, _, err := readRecords(w, r, s.maxUpload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Has("years") {
		sums, err := s.recaps.BuildRecaps(r.Context(), records, years)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, sums)
		return
	}

	sum, err := s.recaps.Recap(r.Context(), records, years[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

type createImportResponse struct {
	ID     int64             `json:"id"`
	Status core.ImportStatus `json:"status"`
	Years  []int             `json:"years"`
}

func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	years, err := requestYears(r, s.defaultYear)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, source, err := readRecords(w, r, s.maxUpload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := sanitizeInput(r.URL.Query().Get("name"))
	if name == "" {
		name = "upload " + time.Now().UTC().Format(time.DateOnly)
	}
	imp := core.Import{
		Name:    name,
		Source:  source,
		Years:   years,
		Records: records,
	}
	if err := imp.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreateImport(r.Context(), imp)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentImport).InfoContext(r.Context(), "Import created",
		log.FieldImportID, id,
		log.FieldRecords, len(records),
		"years", years)

	w.Header().Set("Location", "/api/imports/"+strconv.FormatInt(id, 10))
	writeJSON(w, r, http.StatusCreated, createImportResponse{ID: id, Status: core.ImportPending, Years: years})
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	imports, err := s.store.ListImports(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, imports)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	imp, err := s.store.GetImport(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, imp)
}

func (s *Server) handleImportSummary(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, err := parseYear(r, s.defaultYear)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.recaps.RecapImport(r.Context(), id, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.recaps.ListOverrides(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if overrides == nil {
		overrides = map[string]core.GameOverride{}
	}
	writeJSON(w, r, http.StatusOK, overrides)
}

type overrideRequest struct {
	CoverImage *string `json:"coverImage"`
}

const maxOverrideBody = 16 << 10

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	gameID := sanitizeInput(r.PathValue("gameID"))

	var req overrideRequest
	body := http.MaxBytesReader(w, r.Body, maxOverrideBody)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err))
		return
	}

	o := core.GameOverride{CoverImage: req.CoverImage}
	if err := s.recaps.SetOverride(r.Context(), gameID, o); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentOverride).InfoContext(r.Context(), "Override saved",
		log.FieldGameID, gameID)
	writeJSON(w, r, http.StatusOK, map[string]any{"gameId": gameID, "coverImage": *req.CoverImage})
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	gameID := sanitizeInput(r.PathValue("gameID"))
	if err := s.recaps.DeleteOverride(r.Context(), gameID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
