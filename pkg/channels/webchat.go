package channels

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadcatalyst/leadchat/pkg/config"
	"github.com/leadcatalyst/leadchat/pkg/controller"
	"github.com/leadcatalyst/leadchat/pkg/csvexport"
	"github.com/leadcatalyst/leadchat/pkg/logger"
)

const sessionCookie = "leadchat_session"

// WebChatChannel serves the lead chat page and its JSON endpoints.
type WebChatChannel struct {
	config     config.WebChatConfig
	exportName string
	chats      *controller.Manager
	server     *http.Server
	sessions   map[string]time.Time // token -> expiry
	mu         sync.RWMutex
}

type chatRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	ChatID        string                    `json:"chat_id"`
	Message       controller.ChatMessage    `json:"message"`
	Notifications []controller.Notification `json:"notifications"`
	Snapshot      controller.Snapshot       `json:"snapshot"`
}

type pollResponse struct {
	controller.Snapshot
	Notifications []controller.Notification `json:"notifications"`
}

func NewWebChatChannel(cfg config.WebChatConfig, chats *controller.Manager, exportName string) *WebChatChannel {
	return &WebChatChannel{
		config:     cfg,
		exportName: exportName,
		chats:      chats,
		sessions:   make(map[string]time.Time),
	}
}

// createSession generates a random session token and stores it.
func (c *WebChatChannel) createSession() string {
	token := uuid.NewString()
	c.mu.Lock()
	c.sessions[token] = time.Now().Add(24 * time.Hour)
	c.mu.Unlock()
	return token
}

// validSession checks if the request carries a valid session cookie.
func (c *WebChatChannel) validSession(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	c.mu.RLock()
	expiry, ok := c.sessions[cookie.Value]
	c.mu.RUnlock()
	return ok && time.Now().Before(expiry)
}

// requireAuth wraps a handler with authentication. If auth is not configured, it passes through.
func (c *WebChatChannel) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.config.AuthEnabled() || c.validSession(r) {
			next(w, r)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// requireAuthAPI is like requireAuth but returns 401 JSON for API endpoints.
func (c *WebChatChannel) requireAuthAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.config.AuthEnabled() || c.validSession(r) {
			next(w, r)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
}

// Handler returns the routed mux; Start serves it.
func (c *WebChatChannel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.requireAuth(c.handleUI))
	mux.HandleFunc("/chat/send", c.requireAuthAPI(c.handleSend))
	mux.HandleFunc("/chat/poll", c.requireAuthAPI(c.handlePoll))
	mux.HandleFunc("/chat/export", c.requireAuthAPI(c.handleExport))
	mux.HandleFunc("/login", c.handleLogin)
	mux.HandleFunc("/logout", c.handleLogout)
	mux.HandleFunc("/healthz", c.handleHealth)
	return mux
}

// Start binds the listen address and serves in the background. Bind failures are
// returned; later server errors other than a clean shutdown are logged.
func (c *WebChatChannel) Start(ctx context.Context) error {
	addr := c.config.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("webchat listen %s: %w", addr, err)
	}
	c.server = &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if c.config.AuthEnabled() {
		logger.InfoCF("webchat", "WebChat started (auth enabled)", map[string]interface{}{"addr": addr})
	} else {
		logger.InfoCF("webchat", "WebChat started (no auth)", map[string]interface{}{"addr": addr})
	}

	go func() {
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF("webchat", "WebChat server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (c *WebChatChannel) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

func (c *WebChatChannel) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !c.config.AuthEnabled() || c.validSession(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, loginHTML)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
			return
		}
	} else {
		r.ParseForm()
		body.Username = r.FormValue("username")
		body.Password = r.FormValue("password")
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(body.Username), []byte(c.config.Username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(body.Password), []byte(c.config.Password)) == 1

	if !usernameMatch || !passwordMatch {
		logger.WarnCF("webchat", "WebChat login failed", map[string]interface{}{
			"remote": r.RemoteAddr,
		})
		if contentType == "application/json" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, loginErrorHTML)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    c.createSession(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400,
	})

	if contentType == "application/json" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *WebChatChannel) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		c.mu.Lock()
		delete(c.sessions, cookie.Value)
		c.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (c *WebChatChannel) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}

	chat := c.chats.Get(req.ChatID)
	reply, err := chat.Submit(r.Context(), req.Message)
	switch {
	case errors.Is(err, controller.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, controller.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	// Any other error is already part of the chat log as a bot message.

	writeJSON(w, http.StatusOK, chatResponse{
		ChatID:        chat.ID(),
		Message:       reply,
		Notifications: chat.TakeNotifications(),
		Snapshot:      chat.Snapshot(),
	})
}

// handlePoll reports the state of an existing chat. Only handleSend creates chats.
func (c *WebChatChannel) handlePoll(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	chat, ok := c.chats.Lookup(chatID)
	if !ok {
		writeJSON(w, http.StatusOK, pollResponse{
			Snapshot:      controller.IdleSnapshot(chatID),
			Notifications: []controller.Notification{},
		})
		return
	}
	writeJSON(w, http.StatusOK, pollResponse{
		Snapshot:      chat.Snapshot(),
		Notifications: chat.TakeNotifications(),
	})
}

func (c *WebChatChannel) handleExport(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	name := csvexport.AttachmentName(r.URL.Query().Get("filename"), c.exportName)

	chat, ok := c.chats.Lookup(chatID)
	if !ok {
		logger.WarnCF("webchat", "No data to export", map[string]interface{}{"chat_id": chatID})
		w.WriteHeader(http.StatusNoContent)
		return
	}

	text, err := csvexport.Encode(chat.Rows())
	if errors.Is(err, csvexport.ErrNoRows) {
		logger.WarnCF("webchat", "No data to export", map[string]interface{}{"chat_id": chatID})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		logger.ErrorCF("webchat", "Error exporting to CSV", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}

	w.Header().Set("Content-Type", csvexport.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	fmt.Fprint(w, text)
}

func (c *WebChatChannel) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "chats": c.chats.Len()})
}

func (c *WebChatChannel) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, webChatHTML)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("webchat", "Encoding response failed", map[string]interface{}{"error": err.Error()})
	}
}
