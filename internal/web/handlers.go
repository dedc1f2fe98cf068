package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"asistencia/internal/account"
	"asistencia/internal/attendance"
	"asistencia/internal/auth"
	"asistencia/internal/metrics"
)

// Accounts is the credential-verification surface the handlers need.
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (account.User, error)
}

// Attendance is the submission/read surface the handlers need.
type Attendance interface {
	Submit(ctx context.Context, classID, surname, givenName, dni string, now time.Time) (attendance.Record, error)
	ListAll(ctx context.Context) ([]attendance.Record, error)
}

// Handler serves the server-rendered pages.
type Handler struct {
	sessions   *auth.SessionManager
	accounts   Accounts
	attendance Attendance
}

// New creates the HTML handler set.
func New(sessions *auth.SessionManager, accounts Accounts, att Attendance) *Handler {
	return &Handler{sessions: sessions, accounts: accounts, attendance: att}
}

// Register mounts all HTML routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.Index)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/asistencia/:claseID", h.ClassForm)
	r.POST("/asistencia/:claseID", h.Submit)

	protected := r.Group("/", auth.RequireSession(h.sessions))
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/logout", h.Logout)
}

type loginForm struct {
	Username string `form:"usuario" binding:"required"`
	Password string `form:"contrasena" binding:"required"`
}

type submitForm struct {
	Surname   string `form:"apellido" binding:"required"`
	GivenName string `form:"nombre" binding:"required"`
	DNI       string `form:"dni" binding:"required"`
}

type loginView struct {
	Title    string
	Flashes  []auth.Flash
	Username string
}

type dashboardView struct {
	Title   string
	Flashes []auth.Flash
	Records []attendance.Record
}

type classFormView struct {
	Title   string
	Flashes []auth.Flash
	ClassID string
}

// Index redirects unconditionally to the login page.
func (h *Handler) Index(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/login")
}

// LoginPage renders the login form, or goes straight to the dashboard for
// an already authenticated session.
func (h *Handler) LoginPage(c *gin.Context) {
	if _, ok := h.sessions.UserID(c.Request); ok {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	h.renderLogin(c, "")
}

// Login validates credentials and establishes the session.
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.sessions.Flash(c.Writer, c.Request, auth.FlashError, "Completá usuario y contraseña.")
		h.renderLogin(c, "")
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failed").Inc()
			h.sessions.Flash(c.Writer, c.Request, auth.FlashError, "Usuario o contraseña incorrectos.")
			h.renderLogin(c, form.Username)
			return
		}
		h.fail(c, err)
		return
	}

	if err := h.sessions.Login(c.Writer, c.Request, user.ID); err != nil {
		h.fail(c, err)
		return
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	h.sessions.Flash(c.Writer, c.Request, auth.FlashSuccess, "¡Inicio de sesión exitoso!")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Dashboard lists every attendance record, newest first.
func (h *Handler) Dashboard(c *gin.Context) {
	records, err := h.attendance.ListAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", dashboardView{
		Title:   "Registros de asistencia",
		Flashes: h.sessions.TakeFlashes(c.Writer, c.Request),
		Records: records,
	})
}

// ClassForm renders the submission form for a class.
func (h *Handler) ClassForm(c *gin.Context) {
	classID := c.Param("claseID")
	c.HTML(http.StatusOK, "attendance_form.html", classFormView{
		Title:   "Asistencia " + classID,
		Flashes: h.sessions.TakeFlashes(c.Writer, c.Request),
		ClassID: classID,
	})
}

// Submit records attendance and redirects back to the form so the flash
// message shows on the reload.
func (h *Handler) Submit(c *gin.Context) {
	classID := c.Param("claseID")
	back := "/asistencia/" + classID

	var form submitForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		h.sessions.Flash(c.Writer, c.Request, auth.FlashError, "Completá apellido, nombre y DNI.")
		c.Redirect(http.StatusSeeOther, back)
		return
	}

	_, err := h.attendance.Submit(c.Request.Context(), classID, form.Surname, form.GivenName, form.DNI, time.Now())
	switch {
	case errors.Is(err, attendance.ErrDuplicate):
		metrics.SubmissionsTotal.WithLabelValues("duplicate").Inc()
		h.sessions.Flash(c.Writer, c.Request, auth.FlashWarning,
			fmt.Sprintf("ADVERTENCIA: El DNI %s ya marcó asistencia para la clase %s hoy.", form.DNI, classID))
	case errors.Is(err, attendance.ErrMissingFields):
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		h.sessions.Flash(c.Writer, c.Request, auth.FlashError, "Completá apellido, nombre y DNI.")
	case err != nil:
		h.fail(c, err)
		return
	default:
		metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
		h.sessions.Flash(c.Writer, c.Request, auth.FlashSuccess, "¡Asistencia registrada con éxito! Gracias.")
	}
	c.Redirect(http.StatusSeeOther, back)
}

// Logout destroys the session and confirms on the login page.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Logout(c.Writer, c.Request)
	h.sessions.Flash(c.Writer, c.Request, auth.FlashSuccess, "Has cerrado sesión correctamente.")
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) renderLogin(c *gin.Context, username string) {
	c.HTML(http.StatusOK, "login.html", loginView{
		Title:    "Acceso de profesores",
		Flashes:  h.sessions.TakeFlashes(c.Writer, c.Request),
		Username: username,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, "error interno")
	c.Abort()
}
