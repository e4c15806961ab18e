package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"warbler/dto"
	"warbler/messages"
	"warbler/monitoring"
)

// NewMessage posts the form's text as the logged-in user.
func (h *Handler) NewMessage(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	msg, err := h.messages.Post(r.Context(), me.ID, r.FormValue("text"))
	if err != nil {
		if errors.Is(err, messages.ErrInvalidText) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.serverError(w, r, err)
		return
	}
	monitoring.MessagesPosted.Inc()
	h.log.WithField("message_id", msg.ID).Debug("message created")
	http.Redirect(w, r, fmt.Sprintf("/users/%d", me.ID), http.StatusFound)
}

// ToggleLike answers with the like state after the toggle.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}
	liked, err := h.messages.ToggleLike(r.Context(), me.ID, id)
	switch {
	case errors.Is(err, messages.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "Message not found")
	case errors.Is(err, messages.ErrOwnMessage):
		writeError(w, http.StatusForbidden, "You cannot like your own message")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
	}
}

// UserMessages lists a user's messages, newest first.
func (h *Handler) UserMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	list, err := h.messages.ListByUser(r.Context(), user.ID, 0)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": dto.Messages(list)})
}
