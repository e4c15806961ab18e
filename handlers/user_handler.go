package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"warbler/dto"
	"warbler/models"
	"warbler/monitoring"
	"warbler/users"

	"github.com/sirupsen/logrus"
)

const minPasswordLength = 6

var passwordTooLongMsg = fmt.Sprintf("Password must be at most %d bytes", users.MaxPasswordBytes)

// signupFailure maps a Register error to a status, a message for the client
// and a metric reason.
func signupFailure(err error) (int, string, string) {
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		return http.StatusConflict, "Username already taken", "username_taken"
	case errors.Is(err, users.ErrEmailTaken):
		return http.StatusConflict, "Email already taken", "email_taken"
	case errors.Is(err, users.ErrDuplicateUser):
		return http.StatusConflict, "User already exists", "duplicate"
	case errors.Is(err, users.ErrPasswordTooLong):
		return http.StatusBadRequest, passwordTooLongMsg, "password_too_long"
	default:
		return http.StatusInternalServerError, "Database error", "error"
	}
}

// Home shows the logged-in user's profile, or a null user for visitors.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessionUser(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": nil})
		return
	}
	profile, err := h.profile(r, user)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": profile})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" {
		writeError(w, http.StatusBadRequest, "You have to enter a username")
		return
	}
	if password == "" {
		writeError(w, http.StatusBadRequest, "You have to enter a password")
		return
	}

	res, err := h.directory.Authenticate(r.Context(), username, password)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !res.OK() {
		monitoring.LoginFailure.WithLabelValues("invalid_credentials").Inc()
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	if err := h.login(w, r, res.User()); err != nil {
		h.serverError(w, r, err)
		return
	}
	monitoring.LoginSuccess.Inc()
	h.log.WithField("user_id", res.User().ID).Info("user logged in")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.logout(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	imageURL := strings.TrimSpace(r.FormValue("image_url"))

	switch {
	case username == "":
		writeError(w, http.StatusBadRequest, "You have to enter a username")
		return
	case email == "" || !strings.Contains(email, "@"):
		writeError(w, http.StatusBadRequest, "You have to enter a valid email address")
		return
	case len(password) < minPasswordLength:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		return
	case len(password) > users.MaxPasswordBytes:
		writeError(w, http.StatusBadRequest, passwordTooLongMsg)
		return
	}

	user, err := h.directory.Register(r.Context(), username, email, password, imageURL)
	if err != nil {
		status, msg, reason := signupFailure(err)
		if status == http.StatusInternalServerError {
			h.serverError(w, r, err)
			return
		}
		monitoring.SignupFailure.WithLabelValues(reason).Inc()
		writeError(w, status, msg)
		return
	}

	if err := h.login(w, r, user); err != nil {
		h.serverError(w, r, err)
		return
	}
	monitoring.SignupSuccess.Inc()
	http.Redirect(w, r, "/", http.StatusFound)
}

// ListUsers searches by username with ?q=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": dto.Users(list)})
}

func (h *Handler) ShowUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	profile, err := h.profile(r, user)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	recent, err := h.messages.ListByUser(r.Context(), user.ID, 0)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":     profile,
		"messages": dto.Messages(recent),
	})
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	list, err := h.graph.Followers(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":      dto.User(*user),
		"followers": dto.Users(list),
	})
}

func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromPath(w, r)
	if !ok {
		return
	}
	list, err := h.graph.Following(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":      dto.User(*user),
		"following": dto.Users(list),
	})
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if err := h.graph.Follow(r.Context(), me.ID, id); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(w, r, err)
		return
	}
	monitoring.FollowChanges.WithLabelValues("follow").Inc()
	http.Redirect(w, r, fmt.Sprintf("/users/%d/following", me.ID), http.StatusFound)
}

func (h *Handler) StopFollowing(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if err := h.graph.Unfollow(r.Context(), me.ID, id); err != nil {
		h.serverError(w, r, err)
		return
	}
	monitoring.FollowChanges.WithLabelValues("unfollow").Inc()
	http.Redirect(w, r, fmt.Sprintf("/users/%d/following", me.ID), http.StatusFound)
}

// DeleteUser removes the logged-in user and ends the session.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if err := h.directory.Delete(r.Context(), me.ID); err != nil {
		h.serverError(w, r, err)
		return
	}

	if err := h.logout(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.log.WithFields(logrus.Fields{"user_id": me.ID, "username": me.Username}).Info("account deleted")
	http.Redirect(w, r, "/signup", http.StatusFound)
}

func (h *Handler) userFromPath(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return nil, false
	}
	user, err := h.directory.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
		} else {
			h.serverError(w, r, err)
		}
		return nil, false
	}
	return user, true
}

func (h *Handler) profile(r *http.Request, user *models.User) (dto.ProfileDTO, error) {
	ctx := r.Context()
	msgs, err := h.messages.CountByUser(ctx, user.ID)
	if err != nil {
		return dto.ProfileDTO{}, err
	}
	followers, err := h.graph.FollowerCount(ctx, user.ID)
	if err != nil {
		return dto.ProfileDTO{}, err
	}
	following, err := h.graph.FollowingCount(ctx, user.ID)
	if err != nil {
		return dto.ProfileDTO{}, err
	}
	return dto.ProfileDTO{
		UserDTO:        dto.User(*user),
		HeaderImageURL: user.HeaderImageURL,
		Messages:       msgs,
		Followers:      followers,
		Following:      following,
	}, nil
}
