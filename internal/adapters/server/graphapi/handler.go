// Package graphapi provides the HTTP adapter PKM plugins push graph data to.
package graphapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/Brandtweary/cyberorganism/internal/graph"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the plugin-facing endpoints: POST /data for node pushes,
// GET /data for the stored node listing, GET /sync/status and
// POST /sync/update for the full-sync handshake.
type Handler struct {
	store  *graph.Datastore
	logger *log.Logger
}

// PluginData is the envelope every plugin push arrives in. The payload is a
// nested JSON document whose shape depends on the type field.
type PluginData struct {
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type,omitempty"`
	Payload   string `json:"payload"`
}

// Response is the uniform reply for every mutation endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHandler constructs the graph API adapter.
func NewHandler(store *graph.Datastore, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ServeHTTP routes one plugin request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/data":
		switch r.Method {
		case http.MethodPost:
			h.handleData(w, r)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.store.Nodes())
		default:
			writeMethodNotAllowed(w, "GET, POST")
		}
	case "/sync/status":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, h.store.SyncStatus())
	case "/sync/update":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleSyncUpdate(w)
	default:
		writeJSON(w, http.StatusNotFound, Response{Success: false, Message: "endpoint not found"})
	}
}

// handleData dispatches a plugin push on its type field. Unknown types are
// acknowledged without storing anything, matching plugin change events that
// carry no payload worth keeping.
func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	var data PluginData
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&data); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	h.logger.Debug("plugin data received", "source", data.Source, "type", data.Type, "timestamp", data.Timestamp)

	var (
		message string
		err     error
	)
	switch data.Type {
	case "block":
		message, err = h.storeBlock(data.Payload)
	case "blocks", "block_batch":
		message, err = h.storeBlockBatch(data.Payload)
	case "page":
		message, err = h.storePage(data.Payload)
	case "pages", "page_batch":
		message, err = h.storePageBatch(data.Payload)
	default:
		message = "Data received"
	}
	if err != nil {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message})
}

func (h *Handler) storeBlock(payload string) (string, error) {
	var block graph.BlockData
	if err := json.Unmarshal([]byte(payload), &block); err != nil {
		return "", fmt.Errorf("could not parse block data: %w", err)
	}
	if _, err := h.store.UpsertBlock(block); err != nil {
		return "", fmt.Errorf("error processing block: %w", err)
	}
	return "Block processed successfully", nil
}

func (h *Handler) storeBlockBatch(payload string) (string, error) {
	var blocks []graph.BlockData
	if err := json.Unmarshal([]byte(payload), &blocks); err != nil {
		return "", fmt.Errorf("could not parse batch blocks: %w", err)
	}
	stored, failed, err := h.store.UpsertBlocks(blocks)
	if err != nil {
		return "", fmt.Errorf("error processing blocks: %w", err)
	}
	return batchMessage("blocks", stored, failed)
}

func (h *Handler) storePage(payload string) (string, error) {
	var page graph.PageData
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		return "", fmt.Errorf("could not parse page data: %w", err)
	}
	if _, err := h.store.UpsertPage(page); err != nil {
		return "", fmt.Errorf("error processing page: %w", err)
	}
	return "Page processed successfully", nil
}

func (h *Handler) storePageBatch(payload string) (string, error) {
	var pages []graph.PageData
	if err := json.Unmarshal([]byte(payload), &pages); err != nil {
		return "", fmt.Errorf("could not parse batch pages: %w", err)
	}
	stored, failed, err := h.store.UpsertPages(pages)
	if err != nil {
		return "", fmt.Errorf("error processing pages: %w", err)
	}
	return batchMessage("pages", stored, failed)
}

func batchMessage(kind string, stored, failed int) (string, error) {
	total := stored + failed
	switch {
	case failed == 0:
		return fmt.Sprintf("Successfully processed all %d %s", total, kind), nil
	case stored > 0:
		return fmt.Sprintf("Processed %d/%d %s successfully, %d errors", stored, total, kind, failed), nil
	default:
		return "", fmt.Errorf("failed to process any %s, %d errors", kind, failed)
	}
}

func (h *Handler) handleSyncUpdate(w http.ResponseWriter) {
	if err := h.store.UpdateFullSyncTimestamp(); err != nil {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: fmt.Sprintf("Error updating sync timestamp: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Sync timestamp updated successfully"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, Response{Success: false, Message: "method not allowed"})
}
