/*
Package server provides a JSON HTTP API for syncing XLIFF documents into the store and exporting
translations back out.
*/
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/petert82/go-translation-sync/datastore"
	"github.com/petert82/go-translation-sync/exporter"
	"github.com/petert82/go-translation-sync/importer"
	"github.com/petert82/go-translation-sync/trans"
	"go.uber.org/zap"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
)

// Largest XLIFF document accepted by POST /sync.
const maxDocumentSize = 32 << 20

type Server struct {
	store    datastore.Store
	importer *importer.Importer
	exporter *exporter.Exporter
	logger   *zap.Logger
	// Syncs and exports read then write the whole store, so only one runs at a time.
	mu sync.Mutex
}

func New(store datastore.Store, im *importer.Importer, ex *exporter.Exporter, logger *zap.Logger) *Server {
	return &Server{store: store, importer: im, exporter: ex, logger: logger}
}

func statusFor(e error) int {
	switch {
	case errors.Is(e, trans.ErrUnknownLanguage):
		return http.StatusNotFound
	case errors.Is(e, trans.ErrMalformedDocument):
		return http.StatusBadRequest
	case errors.Is(e, trans.ErrUnsupportedSourceLanguage):
		return http.StatusUnprocessableEntity
	case errors.Is(e, trans.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func checkHttpWithStatus(e error, w http.ResponseWriter, status int) (hadError bool) {
	if e != nil {
		w.WriteHeader(status)

		jsonErr := struct {
			Error string `json:"error"`
		}{
			Error: e.Error(),
		}
		enc := json.NewEncoder(w)
		enc.Encode(jsonErr)

		return true
	}
	return false
}

func checkHttp(e error, w http.ResponseWriter) (hadError bool) {
	return checkHttpWithStatus(e, w, statusFor(e))
}

func setJsonHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		h.ServeHTTP(w, r)
	})
}

// Gets list of languages that can be exported
func (s *Server) getLanguagesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	langs, err := s.exporter.Available(r.Context())
	s.mu.Unlock()
	if checkHttp(err, w) {
		return
	}

	var output struct {
		Languages []trans.Language `json:"languages"`
	}
	output.Languages = langs
	if output.Languages == nil {
		output.Languages = []trans.Language{}
	}
	enc := json.NewEncoder(w)
	checkHttp(enc.Encode(output), w)
}

// Adds a language column to the store
func (s *Server) createLanguageHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	err := s.store.AddColumn(r.Context(), name)
	s.mu.Unlock()
	if checkHttp(err, w) {
		return
	}

	s.logger.Info("language column added", zap.String("language", name))
	w.Write([]byte("{\"result\":\"ok\"}\n"))
}

// Syncs the store with the XLIFF document in the request body
func (s *Server) syncHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize+1))
	if checkHttpWithStatus(err, w, http.StatusBadRequest) {
		return
	}
	if len(data) > maxDocumentSize {
		checkHttpWithStatus(fmt.Errorf("document larger than %d bytes", maxDocumentSize), w, http.StatusRequestEntityTooLarge)
		return
	}

	s.mu.Lock()
	stats, err := s.importer.SyncBytes(r.Context(), data)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("sync failed", zap.Error(err))
	}
	if checkHttp(err, w) {
		return
	}

	enc := json.NewEncoder(w)
	checkHttp(enc.Encode(stats), w)
}

// Exports one language, named by column or code, as JSON by default or as the XLIFF document itself with ?format=xliff
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	out, err := s.exporter.Export(r.Context(), name)
	s.mu.Unlock()
	if checkHttp(err, w) {
		return
	}

	if r.URL.Query().Get("format") == "xliff" {
		w.Header().Set("Content-Type", "application/xml")
		w.Header().Set("X-Length-Violations", strconv.Itoa(len(out.Violations)))
		w.Write(out.Document)
		return
	}

	output := struct {
		*exporter.Output
		Document string `json:"document"`
	}{Output: out, Document: string(out.Document)}
	if output.Violations == nil {
		output.Violations = []trans.Violation{}
	}
	enc := json.NewEncoder(w)
	checkHttp(enc.Encode(output), w)
}

// Lists records, only live ones unless ?all=true
func (s *Server) getRecordsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records, err := s.store.Records(r.Context())
	s.mu.Unlock()
	if checkHttp(err, w) {
		return
	}

	all := r.URL.Query().Get("all") == "true"
	category := r.URL.Query().Get("category")
	output := make([]Record, 0, len(records))
	for _, rec := range records {
		if !all && !rec.Live() {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		output = append(output, NewRecord(rec))
	}

	enc := json.NewEncoder(w)
	checkHttp(enc.Encode(struct {
		Records []Record `json:"records"`
	}{output}), w)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("{\"status\":\"ok\"}\n"))
}

// Handler returns the API's routes wrapped in its middlewares.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(true)
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/languages", s.getLanguagesHandler).Methods("GET")
	r.HandleFunc("/languages/{name}", s.createLanguageHandler).Methods("POST")
	r.HandleFunc("/languages/{name}/export", s.exportHandler).Methods("GET")
	r.HandleFunc("/records", s.getRecordsHandler).Methods("GET")
	r.HandleFunc("/sync", s.syncHandler).Methods("POST")

	return handlers.CombinedLoggingHandler(os.Stdout, setJsonHeaders(r))
}

// Serve listens on port until the listener fails.
func (s *Server) Serve(port int) error {
	s.logger.Info("listening", zap.Int("port", port))
	return http.ListenAndServe(fmt.Sprintf(":%v", port), s.Handler())
}
