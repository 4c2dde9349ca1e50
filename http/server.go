package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/itemize"
)

// errStatusCodes maps application error codes to HTTP status codes,
// mirroring the link/metadata error taxonomy: conflicts are 409,
// missing resources 404, unprocessable extractions 422, unimplemented
// format lookups 501.
var errStatusCodes = map[string]int{
	itemize.ECONFLICT:      http.StatusConflict,
	itemize.EINVALID:       http.StatusBadRequest,
	itemize.ENOTFOUND:      http.StatusNotFound,
	itemize.EUNPROCESSABLE: http.StatusUnprocessableEntity,
	itemize.EUNIMPLEMENTED: http.StatusNotImplemented,
}

// Server exposes the metadata and itemize services over HTTP.
type Server struct {
	server *http.Server

	Addr     string
	Metadata itemize.MetadataService
	Itemizes itemize.ItemizeService
	Logger   *slog.Logger
}

// NewServer creates a Server with routes registered.
func NewServer() *Server {
	s := &Server{server: &http.Server{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /metadata", s.handleMetadataBatch)
	mux.HandleFunc("GET /metadata/images/{id}", s.handleMetadataImage)
	mux.HandleFunc("GET /itemize/{username}", s.handleListItemizes)
	mux.HandleFunc("POST /itemize/{username}", s.handleCreateItemize)
	mux.HandleFunc("GET /itemize/{username}/{slug}", s.handleGetItemize)
	mux.HandleFunc("DELETE /itemize/{username}/{slug}", s.handleDeleteItemize)
	mux.HandleFunc("POST /itemize/{username}/{slug}", s.handleCreateLink)
	mux.HandleFunc("DELETE /itemize/{username}/{slug}/{linkID}", s.handleDeleteLink)
	mux.HandleFunc("PATCH /itemize/{username}/{slug}/{linkID}", s.handleUpdateLinkOverride)
	s.server.Handler = mux

	return s
}

// Open begins listening on the configured address. It does not block.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger().Error("http server terminated", "err", err)
		}
	}()
	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Handler returns the route handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

type metadataBatchRequest struct {
	URLs []string `json:"urls"`
}

type metadataBatchResponse struct {
	Metadatas []*itemize.Metadata `json:"metadatas"`
}

func (s *Server) handleMetadataBatch(w http.ResponseWriter, r *http.Request) {
	var req metadataBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, itemize.Errorf(itemize.EINVALID, "invalid request body: %v", err))
		return
	}

	metadatas, err := s.Metadata.GetMetadataBatch(r.Context(), req.URLs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, metadataBatchResponse{Metadatas: metadatas})
}

func (s *Server) handleMetadataImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := s.Metadata.GetMetadataImage(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", mime)
	_, _ = w.Write(data)
}

func (s *Server) handleListItemizes(w http.ResponseWriter, r *http.Request) {
	itemizes, err := s.Itemizes.FindItemizes(r.Context(), r.PathValue("username"), r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if itemizes == nil {
		itemizes = []*itemize.Itemize{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"itemizes": itemizes})
}

type createItemizeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

func (s *Server) handleCreateItemize(w http.ResponseWriter, r *http.Request) {
	var req createItemizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, itemize.Errorf(itemize.EINVALID, "invalid request body: %v", err))
		return
	}

	itm := &itemize.Itemize{
		Name:        req.Name,
		Description: req.Description,
		Username:    r.PathValue("username"),
		Public:      req.Public,
	}
	if err := s.Itemizes.CreateItemize(r.Context(), itm); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"itemize": itm})
}

func (s *Server) handleGetItemize(w http.ResponseWriter, r *http.Request) {
	itm, err := s.Itemizes.FindItemize(r.Context(), r.PathValue("username"), r.PathValue("slug"), r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"itemize": itm})
}

func (s *Server) handleDeleteItemize(w http.ResponseWriter, r *http.Request) {
	if err := s.Itemizes.DeleteItemize(r.Context(), r.PathValue("username"), r.PathValue("slug")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createLinkRequest struct {
	URL string `json:"url"`
}

// handleCreateLink extracts metadata before creating the link: a URL
// whose metadata cannot be extracted fails the whole creation, since
// every link must reference a metadata record.
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, itemize.Errorf(itemize.EINVALID, "invalid request body: %v", err))
		return
	}

	m, err := s.Metadata.GetMetadata(r.Context(), req.URL, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if m == nil {
		s.writeError(w, r, itemize.Errorf(itemize.EUNPROCESSABLE, "could not get metadata for url"))
		return
	}

	link, err := s.Itemizes.CreateLink(r.Context(), r.PathValue("username"), r.PathValue("slug"), req.URL, m.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"link": link})
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := s.Itemizes.DeleteLink(r.Context(), r.PathValue("username"), r.PathValue("slug"), r.PathValue("linkID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateLinkOverride(w http.ResponseWriter, r *http.Request) {
	var upd itemize.OverrideUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.writeError(w, r, itemize.Errorf(itemize.EINVALID, "invalid request body: %v", err))
		return
	}

	link, err := s.Itemizes.UpdateLinkOverride(r.Context(), r.PathValue("username"), r.PathValue("slug"), r.PathValue("linkID"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"link": link})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger().Error("encoding response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := itemize.ErrorCode(err)
	status, ok := errStatusCodes[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		s.logger().Error("http request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": itemize.ErrorMessage(err)})
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
