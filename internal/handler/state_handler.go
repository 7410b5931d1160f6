package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"homes-service/internal/middleware"
	"homes-service/internal/session"
	"homes-service/internal/store"
	"homes-service/internal/view"
)

const maxActionBytes = 1 << 20

// StateHandler exposes the application store over HTTP.
type StateHandler struct {
	Store *store.Store
	// Fetch refreshes the session data set. Nil when no upstream is configured.
	Fetch store.Thunk
}

func (h *StateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/state", h.GetState)
	rg.POST("/actions", h.DispatchAction)
	rg.POST("/data/fetch", h.FetchData)

	rg.GET("/session/form", h.UserForm)
	rg.POST("/session/user", h.SubmitUser)
}

// GET /api/state
func (h *StateHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.GetState())
}

// POST /api/actions with {"type": "...", ...payload}
func (h *StateHandler) DispatchAction(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxActionBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(&middleware.HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "action too large", Err: err})
			return
		}
		_ = c.Error(middleware.BadRequest("cannot read body", err))
		return
	}
	action, err := session.DecodeAction(body)
	if err != nil {
		_ = c.Error(middleware.BadRequest("invalid action", err))
		return
	}

	if err := h.Store.Dispatch(c.Request.Context(), action); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.Store.GetState())
}

// POST /api/data/fetch
func (h *StateHandler) FetchData(c *gin.Context) {
	if h.Fetch == nil {
		_ = c.Error(&middleware.HTTPError{Status: http.StatusServiceUnavailable, Message: "no data endpoint configured"})
		return
	}
	if err := h.Store.DispatchThunk(c.Request.Context(), h.Fetch); err != nil {
		_ = c.Error(&middleware.HTTPError{Status: http.StatusBadGateway, Message: "data fetch failed", Err: err})
		return
	}
	c.JSON(http.StatusOK, h.Store.GetState())
}

// GET /api/session/form
func (h *StateHandler) UserForm(c *gin.Context) {
	form := view.NewUserForm()
	c.JSON(http.StatusOK, form.View(h.props()))
}

type userSubmission struct {
	User string `json:"user" form:"user"`
}

// POST /api/session/user, JSON or urlencoded.
func (h *StateHandler) SubmitUser(c *gin.Context) {
	var req userSubmission
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(middleware.BadRequest("invalid payload", err))
		return
	}

	form := view.NewUserForm()
	form.SetInput(req.User)
	if err := form.Submit(c.Request.Context(), h.Store); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, form.View(h.props()))
}

func (h *StateHandler) props() view.Props {
	return view.MapStateToProps(session.Slice(h.Store.GetState()))
}
