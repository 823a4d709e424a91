package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"campus-connect-go/internal/models"
	"campus-connect-go/internal/store"
)

const listLimit = 50

// ListNotificationsHandler returns the 50 newest records plus the unread
// count, recomputed from the rows on every call.
func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)

	notifications, err := h.Store.GetNotifications(r.Context(), userID, listLimit)
	if err != nil {
		log.Println("Failed to get notifications:", err)
		writeError(w, http.StatusInternalServerError, "Failed to get notifications")
		return
	}

	unread, err := h.Store.CountUnread(r.Context(), userID)
	if err != nil {
		log.Println("Failed to count unread:", err)
		writeError(w, http.StatusInternalServerError, "Failed to count unread")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkReadHandler marks one record read
func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	userID := CurrentUserID(r)
	if err := h.Store.MarkNotificationRead(r.Context(), userID, req.ID); err != nil {
		log.Println("Failed to mark notification read:", err)
		writeError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}

	h.publishChange(userID, store.EventUpdate)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// MarkAllReadHandler marks every unread record read in one bulk update
func (h *Handler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := CurrentUserID(r)
	if err := h.Store.MarkAllNotificationsRead(r.Context(), userID); err != nil {
		log.Println("Failed to mark all notifications read:", err)
		writeError(w, http.StatusInternalServerError, "Failed to mark all read")
		return
	}

	h.publishChange(userID, store.EventUpdate)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteNotificationHandler deletes one record: DELETE /api/notifications/<id>
func (h *Handler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
	id, err := strconv.Atoi(idStr)
	if err != nil || id == 0 {
		http.Error(w, "Invalid notification id", http.StatusBadRequest)
		return
	}

	userID := CurrentUserID(r)
	if err := h.Store.DeleteNotification(r.Context(), userID, id); err != nil {
		log.Println("Failed to delete notification:", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete notification")
		return
	}

	h.publishChange(userID, store.EventDelete)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ClearNotificationsHandler deletes every record the user owns
func (h *Handler) ClearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := CurrentUserID(r)
	if err := h.Store.DeleteAllNotifications(r.Context(), userID); err != nil {
		log.Println("Failed to clear notifications:", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear notifications")
		return
	}

	h.publishChange(userID, store.EventDelete)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// NotifyHandler is the producer entry point: any user-facing event (new
// message, incoming call, group invite) lands here. It stores a record,
// publishes a change event, and pushes to the user's devices without making
// the producer wait on delivery.
func (h *Handler) NotifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserID  int    `json:"user_id"`
		Type    string `json:"type"`
		Content string `json:"content"`
		Title   string `json:"title"`
		URL     string `json:"url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	n, err := h.Store.CreateNotification(r.Context(), req.UserID, req.Type, req.Content)
	if err != nil {
		log.Println("Failed to create notification:", err)
		writeError(w, http.StatusInternalServerError, "Failed to create notification")
		return
	}

	h.publishChange(req.UserID, store.EventInsert)

	// Push delivery trails behind; producers never wait on the relay.
	payload := models.DeliveryPayload{
		Title: req.Title,
		Body:  n.Content,
		URL:   req.URL,
		Type:  n.Type,
		Tag:   fmt.Sprintf("notification-%d", n.ID),
	}
	go func() {
		if _, err := h.Dispatcher.Dispatch(context.Background(), n.UserID, payload); err != nil {
			log.Printf("Failed to dispatch push for notification %d: %v", n.ID, err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"notification": n,
	})
}

// EventsHandler streams the user's change events over SSE. Events carry only
// the kind tag; clients refetch the list on every message.
func (h *Handler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	pubsub := h.Bus.Subscribe(r.Context(), CurrentUserID(r))
	defer pubsub.Close()

	ch := pubsub.Channel()

	fmt.Fprintf(w, "data: %s\n\n", "connected")
	w.(http.Flusher).Flush()

	for {
		select {
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			w.(http.Flusher).Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) publishChange(userID int, kind string) {
	// Detached from the request context: the write already happened, the
	// event must still go out if the caller disconnects.
	h.Bus.Publish(context.Background(), userID, kind)
}
