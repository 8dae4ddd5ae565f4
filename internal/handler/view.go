package handler

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"lawgic/internal/model"
	"lawgic/internal/service"
	"lawgic/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// LoadTemplates parses the page templates for gin's HTML renderer.
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"markdown": renderMarkdown,
		"isUser":   func(r model.Role) bool { return r == model.RoleUser },
	}).ParseFS(templateFS, "templates/*.html")
}

// StaticFiles serves the stylesheet.
func StaticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// renderMarkdown turns an assistant reply into HTML. Raw HTML in the reply
// is dropped and only http, https, mailto and relative links stay clickable.
func renderMarkdown(text string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML | html.Safelink})
	return template.HTML(markdown.ToHTML([]byte(text), p, r))
}

type pageData struct {
	Session  *model.Session
	Messages []model.Message
	Topics   []string
	Error    string
	Notice   string
	Preview  string
	Summary  string
}

// ViewHandler serves the server-rendered landing and chat pages. The session
// is bound to the browser with a cookie.
type ViewHandler struct {
	chatService    *service.ChatService
	cookieName     string
	maxUploadBytes int64
}

func NewViewHandler(chatService *service.ChatService, cookieName string, maxUploadBytes int64) *ViewHandler {
	if cookieName == "" {
		cookieName = "lawgic_session"
	}
	return &ViewHandler{
		chatService:    chatService,
		cookieName:     cookieName,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ViewHandler) Index(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, session, pageData{})
}

func (h *ViewHandler) Navigate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	page, err := model.ParsePage(c.PostForm("page"))
	if err != nil {
		h.result(c, session, err, pageData{})
		return
	}

	updated, err := h.chatService.Navigate(session.ID, page)
	h.result(c, pick(updated, session), err, pageData{})
}

func (h *ViewHandler) ToggleSidebar(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	updated, err := h.chatService.ToggleSidebar(session.ID)
	h.result(c, pick(updated, session), err, pageData{})
}

func (h *ViewHandler) SetTopic(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	updated, err := h.chatService.SetTopic(session.ID, c.PostForm("topic"))
	h.result(c, pick(updated, session), err, pageData{})
}

func (h *ViewHandler) Ask(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	_, err := h.chatService.Ask(c.Request.Context(), session.ID, c.PostForm("message"))
	h.result(c, h.reload(session), err, pageData{})
}

func (h *ViewHandler) Upload(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	data, err := readUploadedFile(c, h.maxUploadBytes)
	if err != nil {
		h.result(c, session, err, pageData{})
		return
	}

	resp, err := h.chatService.UploadDocument(c.Request.Context(), session.ID, data)
	extra := pageData{}
	if err == nil {
		extra.Notice = "Document uploaded and read successfully."
		extra.Preview = resp.Preview
	}
	h.result(c, h.reload(session), err, extra)
}

func (h *ViewHandler) Reset(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	updated, err := h.chatService.Reset(session.ID)
	h.result(c, pick(updated, session), err, pageData{})
}

func (h *ViewHandler) Summarize(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	data, err := readUploadedFile(c, h.maxUploadBytes)
	if err != nil {
		h.result(c, session, err, pageData{})
		return
	}

	resp, err := h.chatService.SummarizeDocument(c.Request.Context(), data)
	extra := pageData{}
	if err == nil {
		extra.Summary = resp.Summary
	}
	h.result(c, session, err, extra)
}

// session loads the cookie's session, creating a fresh one when the cookie
// is missing or its session has expired.
func (h *ViewHandler) session(c *gin.Context) (*model.Session, bool) {
	if id, err := c.Cookie(h.cookieName); err == nil && id != "" {
		session, err := h.chatService.GetSession(id)
		if err == nil {
			return session, true
		}
		if !errors.Is(err, service.ErrSessionNotFound) {
			h.fail(c, err)
			return nil, false
		}
	}

	session, err := h.chatService.CreateSession()
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, session.ID, 0, "/", "", false, true)
	return session, true
}

func (h *ViewHandler) reload(session *model.Session) *model.Session {
	if fresh, err := h.chatService.GetSession(session.ID); err == nil {
		return fresh
	}
	return session
}

func (h *ViewHandler) result(c *gin.Context, session *model.Session, err error, data pageData) {
	if err != nil {
		status, _ := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.WithSession(session.ID).Errorf("%s: %v", c.Request.URL.Path, err)
		}
		data.Error = userMessage(err)
		h.render(c, status, session, data)
		return
	}
	h.render(c, http.StatusOK, session, data)
}

func (h *ViewHandler) render(c *gin.Context, status int, session *model.Session, data pageData) {
	data.Session = session
	data.Messages = session.Transcript()
	data.Topics = model.Topics

	name := "landing.html"
	if session.CurrentPage == model.PageChat {
		name = "chat.html"
	}
	c.HTML(status, name, data)
}

func (h *ViewHandler) fail(c *gin.Context, err error) {
	logger.Errorf("%s: %v", c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, userMessage(err))
}

func pick(updated, fallback *model.Session) *model.Session {
	if updated != nil {
		return updated
	}
	return fallback
}
