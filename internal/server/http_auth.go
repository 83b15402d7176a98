package server

import (
	"net/http"
	"strings"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  *types.User `json:"user"`
}

// registerHandler creates a new account. Self-registration is always a
// candidate account; elevated roles are assigned through the admin API.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "full_name, email and password are required", nil))
		return
	}
	if len(req.Password) < 8 {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "password must be at least 8 characters", nil))
		return
	}

	existing, err := s.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "checking account failed", err))
		return
	}
	if existing != nil {
		s.writeAppError(w, errors.NewConflictError(errors.ErrCodeDuplicateEmail, "An account with this email already exists", nil))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeAppError(w, errors.NewInternalError(errors.ErrCodeInternal, "hashing password failed", err))
		return
	}

	user := &types.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         types.RoleCandidate,
		PasswordHash: hash,
	}
	if err := s.Store.CreateUser(r.Context(), user); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "creating account failed", err))
		return
	}

	token, err := s.Auth.Issue(user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.Logger.Info("Account registered", "user_id", user.ID, "email", user.Email)
	respondJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

// loginHandler exchanges credentials for a bearer token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}

	user, err := s.Store.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading account failed", err))
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.Logger.Info("Login failed", "email", req.Email, "client_ip", getClientIP(r))
		s.writeAppError(w, errors.NewUnauthorizedError(errors.ErrCodeInvalidCredentials, "Invalid email or password"))
		return
	}

	token, err := s.Auth.Issue(user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// meHandler returns the authenticated caller's account.
func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	user, err := s.Store.GetUserByID(r.Context(), principal.ID)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading account failed", err))
		return
	}
	if user == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Account not found"))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// logoutHandler acknowledges logout. Tokens are stateless, so the
// client discards the token; nothing is revoked server-side.
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// listUsersHandler lists accounts, optionally filtered by a name/email
// substring via ?q=.
func (s *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.ListUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing accounts failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// createUserHandler provisions an account with any role. Unlike
// self-registration the caller picks the role, so this sits behind the
// admin gate.
func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "full_name, email and password are required", nil))
		return
	}
	if len(req.Password) < 8 {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "password must be at least 8 characters", nil))
		return
	}
	role := types.RoleCandidate
	if req.Role != "" {
		role = types.Role(req.Role)
		if !role.Valid() {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "unknown role", nil))
			return
		}
	}

	existing, err := s.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "checking account failed", err))
		return
	}
	if existing != nil {
		s.writeAppError(w, errors.NewConflictError(errors.ErrCodeDuplicateEmail, "An account with this email already exists", nil))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeAppError(w, errors.NewInternalError(errors.ErrCodeInternal, "hashing password failed", err))
		return
	}

	user := &types.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.Store.CreateUser(r.Context(), user); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "creating account failed", err))
		return
	}

	s.Logger.Info("Account provisioned", "user_id", user.ID, "role", user.Role)
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	user, err := s.Store.GetUserByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading account failed", err))
		return
	}
	if user == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Account not found"))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

// updateUserHandler applies a partial account update, including role
// assignment.
func (s *Server) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	var req updateUserRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}

	upd := store.UserUpdate{FullName: req.FullName}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		upd.Email = &email
	}
	if req.Role != nil {
		role := types.Role(*req.Role)
		if !role.Valid() {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "unknown role", nil))
			return
		}
		upd.Role = &role
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "password must be at least 8 characters", nil))
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.writeAppError(w, errors.NewInternalError(errors.ErrCodeInternal, "hashing password failed", err))
			return
		}
		upd.PasswordHash = &hash
	}

	user, err := s.Store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "updating account failed", err))
		return
	}
	if user == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Account not found"))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if err := s.Store.DeleteUser(r.Context(), id); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "deleting account failed", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
