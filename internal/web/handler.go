package web

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"

	"box-bot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler админка: статус бота, собранные данные пользователей,
// настройки и прокси к хранилищу документов
type Handler struct {
	admin  service.AdminService
	token  string
	logger *zap.Logger
	tmpl   *template.Template
}

func NewHandler(admin service.AdminService, token string, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		admin:  admin,
		token:  token,
		logger: logger.Named("web"),
		tmpl:   tmpl,
	}, nil
}

// Router маршруты админки; мутации и прокси к документам за токеном
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/status", http.StatusFound)
	})
	r.Get("/status", h.Status)
	r.Get("/users", h.Users)
	r.Get("/settings", h.Settings)
	r.Get("/healthz", h.Healthz)

	r.Group(func(r chi.Router) {
		r.Use(h.verifyToken)
		r.Post("/bot", h.SetBotStatus)
		r.Get("/minio/{bucket}/{filename}", h.Document)
		r.Get("/minio/base64/{bucket}/{filename}", h.DocumentBase64)
	})

	return r
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.admin.BotStatus(r.Context())
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.render(w, "status.html", map[string]interface{}{
		"Title":  "Статус бота",
		"Status": status,
	})
}

func (h *Handler) SetBotStatus(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if err := h.admin.ApplyAction(r.Context(), action); err != nil {
		h.logger.Error("apply bot action", zap.String("action", action), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"error": false})
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	fields, err := h.admin.MainFields(r.Context())
	if err != nil {
		h.renderError(w, err)
		return
	}
	users, err := h.admin.Users(r.Context())
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.render(w, "users.html", map[string]interface{}{
		"Title":  "Пользователи",
		"Fields": fields,
		"Users":  users,
	})
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.admin.Settings(r.Context())
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.render(w, "settings.html", map[string]interface{}{
		"Title":    "Настройки",
		"Settings": settings,
	})
}

// Document прокси к minio
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	filename := chi.URLParam(r, "filename")

	data, contentType, err := h.admin.FetchDocument(r.Context(), bucket, filename)
	if err != nil {
		h.logger.Error("fetch document",
			zap.String("bucket", bucket), zap.String("filename", filename), zap.Error(err))
		http.Error(w, "document not available", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// DocumentBase64 прокси к minio для встраивания картинок в админку
func (h *Handler) DocumentBase64(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	filename := chi.URLParam(r, "filename")

	data, contentType, err := h.admin.FetchDocument(r.Context(), bucket, filename)
	if err != nil {
		h.logger.Error("fetch document",
			zap.String("bucket", bucket), zap.String("filename", filename), zap.Error(err))
		http.Error(w, "document not available", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"image": base64.StdEncoding.EncodeToString(data),
		"mime":  contentType,
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", zap.String("template", name), zap.Error(err))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	h.logger.Error("admin page", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
