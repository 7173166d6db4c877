// Package userapi serves the /user resource the flow runner drives. It backs
// local runs and the repository's tests; production deployments point the
// runner at their own server instead.
package userapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"authflow/internal/domain"
	"authflow/internal/service"
	"authflow/internal/session"
)

const ctxUsernameKey = "userapi.username"

// Handler wires HTTP routes to the user service and session store.
type Handler struct {
	users      service.UserService
	sessions   *session.Store
	cookieName string
	logger     logrus.FieldLogger
}

func NewHandler(users service.UserService, sessions *session.Store, cookieName string, logger logrus.FieldLogger) *Handler {
	if cookieName == "" {
		cookieName = "session"
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Handler{
		users:      users,
		sessions:   sessions,
		cookieName: cookieName,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger())

	user := router.Group("/user")
	{
		user.POST("/register", h.register)
		user.POST("/login", h.login)
		user.POST("/logout", h.logout)

		authed := user.Group("", h.requireSession())
		authed.GET("/validate", h.validate)
		authed.PUT("/update/username/:username", h.updateName)
		authed.PUT("/update/password/:username", h.updatePassword)
		authed.DELETE("/delete/:username", h.deleteUser)
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateNameRequest struct {
	Name string `json:"name" binding:"required"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), domain.Credentials{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": toProfile(user)})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	token, expiresAt, err := h.sessions.Issue(user.Username)
	if err != nil {
		h.logger.WithError(err).Error("issue session")
		fail(c, http.StatusInternalServerError, "could not create session")
		return
	}
	h.setCookie(c, token, int(time.Until(expiresAt).Seconds()))

	c.JSON(http.StatusOK, gin.H{"success": true, "user": toProfile(user)})
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookieName); err == nil {
		h.sessions.Revoke(token)
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) validate(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.GetString(ctxUsernameKey))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusUnauthorized, "session user no longer exists")
			return
		}
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": toProfile(user)})
}

func (h *Handler) updateName(c *gin.Context) {
	username, ok := h.ownPathUser(c)
	if !ok {
		return
	}
	var req updateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UpdateName(c.Request.Context(), username, req.Name)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": toProfile(user)})
}

func (h *Handler) updatePassword(c *gin.Context) {
	username, ok := h.ownPathUser(c)
	if !ok {
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.UpdatePassword(c.Request.Context(), username, req.Password); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteUser(c *gin.Context) {
	username, ok := h.ownPathUser(c)
	if !ok {
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Delete(c.Request.Context(), username, req.Password); err != nil {
		h.serviceError(c, err)
		return
	}
	revoked := h.sessions.RevokeUser(username)
	h.logger.WithFields(logrus.Fields{"username": username, "sessions": revoked}).Info("user deleted")
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.cookieName)
		if err != nil {
			fail(c, http.StatusUnauthorized, "not logged in")
			c.Abort()
			return
		}
		username, err := h.sessions.Resolve(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, "not logged in")
			c.Abort()
			return
		}
		c.Set(ctxUsernameKey, username)
		c.Next()
	}
}

// ownPathUser rejects requests whose :username differs from the session user.
func (h *Handler) ownPathUser(c *gin.Context) (string, bool) {
	username := c.Param("username")
	if username != c.GetString(ctxUsernameKey) {
		fail(c, http.StatusForbidden, "cannot modify another user")
		return "", false
	}
	return username, true
}

func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("user api request failed")
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, maxAge, "/", "", false, true)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("request")
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func toProfile(user *domain.User) domain.Profile {
	return domain.Profile{Username: user.Username, Name: user.Name}
}
