package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"warbler/dto"
	"warbler/follows"
	"warbler/messages"
	"warbler/models"
	"warbler/users"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	SessionName = "warbler-session"
	CurrUserKey = "curr_user"
)

type ctxKey int

const currentUserKey ctxKey = iota

type Handler struct {
	db        *gorm.DB
	directory *users.Directory
	graph     *follows.Graph
	messages  *messages.Service
	sessions  sessions.Store
	log       logrus.FieldLogger
}

func NewHandler(db *gorm.DB, directory *users.Directory, graph *follows.Graph, msgs *messages.Service, store sessions.Store, log logrus.FieldLogger) *Handler {
	return &Handler{
		db:        db,
		directory: directory,
		graph:     graph,
		messages:  msgs,
		sessions:  store,
		log:       log,
	}
}

// RequireLogin loads the session user into the request context and sends
// anonymous visitors back to the home page.
func (h *Handler) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.sessionUser(r)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		if user == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), currentUserKey, user)))
	}
}

// sessionUser returns nil without error for anonymous requests and for
// sessions pointing at a deleted user.
func (h *Handler) sessionUser(r *http.Request) (*models.User, error) {
	session, _ := h.sessions.Get(r, SessionName)
	id, ok := session.Values[CurrUserKey].(uint)
	if !ok {
		return nil, nil
	}
	user, err := h.directory.Get(r.Context(), id)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(currentUserKey).(*models.User)
	return u
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, user *models.User) error {
	session, _ := h.sessions.Get(r, SessionName)
	session.Values[CurrUserKey] = user.ID
	return session.Save(r, w)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := h.sessions.Get(r, SessionName)
	delete(session.Values, CurrUserKey)
	return session.Save(r, w)
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorDTO{Status: status, ErrorMsg: msg})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	writeError(w, http.StatusInternalServerError, "Database error")
}
