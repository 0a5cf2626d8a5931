// Package web provides the embedded keypad UI and calculation history pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/rpncalc/pkg/calculator"
	"github.com/lemonberrylabs/rpncalc/pkg/expr"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionCookie holds the name of the browser's calculator session.
const SessionCookie = "rpncalc_session"

// historyLimit caps the number of rows on the history page.
const historyLimit = 100

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(s *store.Store) *Handler {
	return &Handler{
		store: s,
		funcMap: template.FuncMap{
			"shortName":  shortName,
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"result":     expr.FormatResult,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"keyLabel":   keyLabel,
			"keyClass":   keyClass,
			"truncate":   truncate,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Parsed per page so each page's define blocks stay separate.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.keypad)
	app.Post("/ui/press", h.press)
	app.Get("/ui/sessions/:session", h.sessionKeypad)
	app.Get("/ui/history", h.history)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type keypadContent struct {
	Session      *store.SessionView
	ID           string
	Keys         []string
	Message      string
	Calculations []*store.Calculation
}

type historyContent struct {
	Calculations []*store.Calculation
	Succeeded    int
	Failed       int
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

// keypad shows the keypad of the browser's session, starting a new one when
// the cookie is missing or stale.
func (h *Handler) keypad(c *fiber.Ctx) error {
	view, err := h.store.GetSession(c.Cookies(SessionCookie))
	if err != nil {
		view = h.store.CreateSession("browser")
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    view.Name,
			Path:     "/",
			HTTPOnly: true,
			SameSite: "Lax",
		})
	}
	return h.renderKeypad(c, view, "")
}

func (h *Handler) sessionKeypad(c *fiber.Ctx) error {
	name := "sessions/" + c.Params("session")
	view, err := h.store.GetSession(name)
	if err != nil {
		return h.notFound(c, fmt.Sprintf("Session %q not found", c.Params("session")))
	}
	return h.renderKeypad(c, view, "")
}

func (h *Handler) press(c *fiber.Ctx) error {
	name := c.FormValue("session")
	if name == "" {
		name = c.Cookies(SessionCookie)
	}
	key := c.FormValue("key")

	view, _, err := h.store.Press(name, key)
	if err != nil {
		current, gerr := h.store.GetSession(name)
		if gerr != nil {
			return h.notFound(c, fmt.Sprintf("Session %q not found", shortName(name)))
		}
		c.Status(fiber.StatusBadRequest)
		return h.renderKeypad(c, current, err.Error())
	}
	return h.renderKeypad(c, view, "")
}

func (h *Handler) renderKeypad(c *fiber.Ctx, view *store.SessionView, message string) error {
	return h.render(c, "keypad.html", "keypad", keypadContent{
		Session:      view,
		ID:           shortName(view.Name),
		Keys:         calculator.Keys,
		Message:      message,
		Calculations: h.store.ListCalculations(view.Name, 5),
	})
}

func (h *Handler) history(c *fiber.Ctx) error {
	session := c.Query("session")
	if session != "" {
		if !strings.HasPrefix(session, "sessions/") {
			session = "sessions/" + session
		}
		if _, err := h.store.GetSession(session); err != nil {
			return h.notFound(c, fmt.Sprintf("Session %q not found", shortName(session)))
		}
	}

	succeeded, failed := h.store.Stats()
	return h.render(c, "history.html", "history", historyContent{
		Calculations: h.store.ListCalculations(session, historyLimit),
		Succeeded:    succeeded,
		Failed:       failed,
	})
}

func (h *Handler) notFound(c *fiber.Ctx, message string) error {
	c.Status(fiber.StatusNotFound)
	return h.render(c, "not_found.html", "", notFoundContent{Message: message})
}

// --- Template Helpers ---

func shortName(fullName string) string {
	parts := strings.Split(fullName, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return fullName
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func stateClass(state store.CalculationState) string {
	switch state {
	case store.CalculationSucceeded:
		return "state-succeeded"
	case store.CalculationFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.CalculationState) template.HTML {
	switch state {
	case store.CalculationSucceeded:
		return "&#10003;"
	case store.CalculationFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func keyLabel(key string) string {
	switch key {
	case calculator.KeyDelete:
		return "DEL"
	case calculator.KeyClear:
		return "C"
	case "*":
		return "×"
	case "/":
		return "÷"
	}
	return key
}

func keyClass(key string) string {
	switch key {
	case calculator.KeyEquals:
		return "key key-equals"
	case calculator.KeyDelete, calculator.KeyClear:
		return "key key-edit"
	case "+", "-", "*", "/", "(", ")":
		return "key key-op"
	}
	return "key"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
