// Package api implements the REST API of the calculator service: stateless
// expression evaluation, keypad sessions, calculation history and suite runs.
package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lemonberrylabs/rpncalc/pkg/calculator"
	"github.com/lemonberrylabs/rpncalc/pkg/expr"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
	"github.com/lemonberrylabs/rpncalc/pkg/suite"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// Server is the REST API server.
type Server struct {
	app   *fiber.App
	store *store.Store
}

// Option configures a Server.
type Option func(*fiber.App)

// WithRequestLog logs every request to w.
func WithRequestLog(w io.Writer) Option {
	return func(app *fiber.App) {
		app.Use(logger.New(logger.Config{
			Format:     "${time} ${status} ${method} ${path} ${latency}\n",
			TimeFormat: "2006/01/02 15:04:05",
			Output:     w,
		}))
	}
}

// New creates a new API server.
func New(s *store.Store, opts ...Option) *Server {
	srv := &Server{store: s}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             suite.MaxSourceSize + 4*1024,
	})
	app.Use(recover.New())
	for _, opt := range opts {
		opt(app)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Expressions API
	app.Post("/v1/expressions\\:evaluate", srv.evaluate)
	app.Post("/v1/expressions\\:convert", srv.convert)

	// Calculations API
	app.Get("/v1/calculations", srv.listCalculations)
	app.Get("/v1/calculations/:calculation", srv.getCalculation)

	// Sessions API
	app.Post("/v1/sessions", srv.createSession)
	app.Get("/v1/sessions", srv.listSessions)
	app.Get("/v1/sessions/:session", srv.getSession)
	app.Delete("/v1/sessions/:session", srv.deleteSession)
	app.Post("/v1/sessions/:session\\:press", srv.press)
	app.Get("/v1/sessions/:session/calculations", srv.listSessionCalculations)

	// Suites API
	app.Post("/v1/suites\\:run", srv.runSuite)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Expression Handlers ---

type expressionRequest struct {
	Expression *string `json:"expression"`
}

func parseExpressionRequest(c *fiber.Ctx) (string, error) {
	var req expressionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fmt.Errorf("invalid request body: %v", err)
	}
	if req.Expression == nil {
		return "", errors.New("expression is required")
	}
	return *req.Expression, nil
}

func (s *Server) evaluate(c *fiber.Ctx) error {
	input, err := parseExpressionRequest(c)
	if err != nil {
		return invalidArgument(c, err.Error(), "")
	}

	res, err := expr.Calculate(input)
	out := outcomeOf(input, res, err)
	calc := s.store.RecordCalculation(out)
	if err != nil {
		return calcError(c, err)
	}

	body := fiber.Map{
		"name":       calc.Name,
		"expression": input,
		"display":    expr.FormatResult(res.Value),
		"postfix":    expr.Values(res.Postfix),
	}
	if v, ok := jsonNumber(res.Value); ok {
		body["result"] = v
	}
	return c.JSON(body)
}

func (s *Server) convert(c *fiber.Ctx) error {
	input, err := parseExpressionRequest(c)
	if err != nil {
		return invalidArgument(c, err.Error(), "")
	}

	postfix, err := expr.ToPostfix(input)
	if err != nil {
		return calcError(c, err)
	}
	return c.JSON(fiber.Map{
		"expression": input,
		"postfix":    expr.Values(postfix),
	})
}

// outcomeOf builds the history record for a stateless evaluation.
func outcomeOf(input string, res *expr.Result, err error) calculator.Outcome {
	out := calculator.Outcome{Expression: input}
	if res != nil {
		out.Postfix = expr.Join(res.Postfix)
		out.Result = res.Value
	}
	if err != nil {
		out.Result = 0
		var ce *types.CalcError
		if errors.As(err, &ce) {
			out.Err = ce
		} else {
			out.Err = &types.CalcError{Message: err.Error(), Pos: -1}
		}
	}
	return out
}

// --- Calculation Handlers ---

func (s *Server) listCalculations(c *fiber.Ctx) error {
	limit, err := limitParam(c)
	if err != nil {
		return invalidArgument(c, err.Error(), "")
	}
	return c.JSON(fiber.Map{
		"calculations": calculationsToJSON(s.store.ListCalculations("", limit)),
	})
}

func (s *Server) getCalculation(c *fiber.Ctx) error {
	calc, err := s.store.GetCalculation("calculations/" + c.Params("calculation"))
	if err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(calculationToJSON(calc))
}

// --- Session Handlers ---

type createSessionRequest struct {
	DisplayName string `json:"displayName"`
}

func (s *Server) createSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return invalidArgument(c, fmt.Sprintf("invalid request body: %v", err), "")
	}
	return c.JSON(s.store.CreateSession(req.DisplayName))
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sessions": s.store.ListSessions(),
	})
}

func (s *Server) getSession(c *fiber.Ctx) error {
	view, err := s.store.GetSession(sessionName(c))
	if err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(view)
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if err := s.store.DeleteSession(sessionName(c)); err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(fiber.Map{})
}

type pressRequest struct {
	Key  string   `json:"key"`
	Keys []string `json:"keys"`
}

func (s *Server) press(c *fiber.Ctx) error {
	var req pressRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidArgument(c, fmt.Sprintf("invalid request body: %v", err), "")
	}
	keys := req.Keys
	if req.Key != "" {
		keys = append([]string{req.Key}, keys...)
	}
	if len(keys) == 0 {
		return invalidArgument(c, "key or keys is required", "")
	}

	view, recorded, err := s.store.Press(sessionName(c), keys...)
	if err != nil {
		if errors.Is(err, calculator.ErrUnknownKey) {
			return invalidArgument(c, err.Error(), "")
		}
		return notFound(c, err.Error())
	}

	return c.JSON(fiber.Map{
		"session":      view,
		"calculations": calculationsToJSON(recorded),
	})
}

func (s *Server) listSessionCalculations(c *fiber.Ctx) error {
	name := sessionName(c)
	if _, err := s.store.GetSession(name); err != nil {
		return notFound(c, err.Error())
	}
	limit, err := limitParam(c)
	if err != nil {
		return invalidArgument(c, err.Error(), "")
	}
	return c.JSON(fiber.Map{
		"calculations": calculationsToJSON(s.store.ListCalculations(name, limit)),
	})
}

// --- Suite Handlers ---

func (s *Server) runSuite(c *fiber.Ctx) error {
	st, err := suite.Parse(c.Body())
	if err != nil {
		return invalidArgument(c, err.Error(), "")
	}
	if st.Name == "" {
		st.Name = c.Query("name", "adhoc")
	}
	rep := suite.Run(st, s.recordSuiteCase)
	return c.JSON(rep)
}

func (s *Server) recordSuiteCase(cs *suite.Case, res *expr.Result, err error) {
	s.store.RecordCalculation(outcomeOf(cs.Expression, res, err))
}

// --- Suite Directory Loading ---

// LoadSuites runs every suite file in dir once and records each case in the
// calculation history.
func (s *Server) LoadSuites(dir string) error {
	suites, failures, err := suite.LoadDir(dir)
	if err != nil {
		return err
	}
	for name, ferr := range failures {
		log.Printf("Warning: skipping suite file %q: %v", name, ferr)
	}

	for _, st := range suites {
		rep := suite.Run(st, s.recordSuiteCase)
		log.Printf("Suite %q: %d passed, %d failed", rep.Suite, rep.Passed, rep.Failed)
		for _, r := range rep.Results {
			if !r.Passed {
				log.Printf("  FAIL %s: %s", r.Name, r.Message)
			}
		}
	}
	log.Printf("Loaded %d suite(s) from %s", len(suites), dir)
	return nil
}

// --- Helpers ---

func sessionName(c *fiber.Ctx) string {
	return "sessions/" + c.Params("session")
}

func limitParam(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

// jsonNumber returns v if it can be encoded as a JSON number.
func jsonNumber(v float64) (float64, bool) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func calculationToJSON(calc *store.Calculation) fiber.Map {
	m := fiber.Map{
		"name":       calc.Name,
		"expression": calc.Expression,
		"state":      calc.State,
		"createTime": calc.CreateTime.Format(time.RFC3339),
	}
	if calc.Session != "" {
		m["session"] = calc.Session
	}
	if calc.Postfix != "" {
		m["postfix"] = strings.Fields(calc.Postfix)
	}
	if calc.State == store.CalculationSucceeded {
		m["display"] = expr.FormatResult(calc.Result)
		if v, ok := jsonNumber(calc.Result); ok {
			m["result"] = v
		}
	} else {
		m["error"] = fiber.Map{
			"kind":    calc.ErrorKind,
			"message": calc.Error,
		}
	}
	return m
}

func calculationsToJSON(calcs []*store.Calculation) []fiber.Map {
	items := make([]fiber.Map, len(calcs))
	for i, calc := range calcs {
		items[i] = calculationToJSON(calc)
	}
	return items
}

func errorJSON(c *fiber.Ctx, code int, status, message, reason string) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
		"status":  status,
	}
	if reason != "" {
		body["reason"] = reason
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

func invalidArgument(c *fiber.Ctx, message, reason string) error {
	return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", message, reason)
}

func notFound(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", message, "")
}

// calcError maps a conversion or evaluation failure to a 400 carrying its kind.
func calcError(c *fiber.Ctx, err error) error {
	kind, _ := types.KindOf(err)
	return invalidArgument(c, err.Error(), string(kind))
}
