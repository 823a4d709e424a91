package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"campus-connect-go/internal/dispatch"
	"campus-connect-go/internal/store"
)

type Handler struct {
	Store      store.Store
	Bus        store.EventBus
	Dispatcher *dispatch.Dispatcher
}

func NewHandler(s store.Store, bus store.EventBus, d *dispatch.Dispatcher) *Handler {
	return &Handler{
		Store:      s,
		Bus:        bus,
		Dispatcher: d,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Failed to encode response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
