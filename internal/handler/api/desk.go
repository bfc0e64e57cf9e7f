package api

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"TitaniumDesk/internal/domain/models"
	"TitaniumDesk/internal/presenter"
	"TitaniumDesk/internal/usecase"
	xhttp "TitaniumDesk/pkg/http"
	xlogger "TitaniumDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DeskService is what the handler needs from the desk controller.
type DeskService interface {
	Snapshot() usecase.Snapshot
	UplinkStats() models.UplinkStats
	ForceTrade(ctx context.Context, side models.OrderSide) (models.ForceResult, error)
}

// DeskHandler serves the dashboard pages and the JSON API.
type DeskHandler struct {
	logger  *xlogger.Logger
	desk    DeskService
	loc     *time.Location
	refresh int
}

func NewDeskHandler(logger *xlogger.Logger, desk DeskService, loc *time.Location, refreshSeconds int) *DeskHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DeskHandler{
		logger:  logger.With(xlogger.Component("handler")),
		desk:    desk,
		loc:     loc,
		refresh: refreshSeconds,
	}
}

func (h *DeskHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Page)
	e.GET("/view/:name", h.Page)
	e.POST("/view/trades/force/:side", h.ForceForm)
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/state", h.State)
	g.GET("/logs", h.Logs)
	g.GET("/trades", h.Trades)
	g.GET("/chart", h.Chart)
	g.GET("/uplink", h.Uplink)
	g.POST("/force/:side", h.Force)
}

type pageData struct {
	presenter.Page
	Refresh int
}

func (h *DeskHandler) Page(c echo.Context) error {
	req := &models.ViewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown view %q", c.Param("name")))
	}

	page := presenter.Build(h.desk.Snapshot(), req.Name, h.loc)
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page.html", pageData{Page: page, Refresh: h.refresh}); err != nil {
		h.logger.Error("render page", xlogger.String("view", req.Name), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *DeskHandler) State(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.desk.Snapshot())
}

func (h *DeskHandler) Logs(c echo.Context) error {
	req := &models.LogsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap := h.desk.Snapshot()
	return xhttp.ListResponse(c, presenter.Logs(snap.Logs, req.Limit, h.loc), int64(len(snap.Logs)))
}

func (h *DeskHandler) Trades(c echo.Context) error {
	return xhttp.SuccessResponse(c, presenter.Trades(h.desk.Snapshot().Trades, h.loc))
}

func (h *DeskHandler) Chart(c echo.Context) error {
	return xhttp.SuccessResponse(c, presenter.Chart(h.desk.Snapshot(), h.loc))
}

type uplinkResponse struct {
	models.UplinkStats
	Simulated bool `json:"simulated"`
	Connected bool `json:"connected"`
}

func (h *DeskHandler) Uplink(c echo.Context) error {
	snap := h.desk.Snapshot()
	return xhttp.SuccessResponse(c, uplinkResponse{
		UplinkStats: h.desk.UplinkStats(),
		Simulated:   snap.Simulated,
		Connected:   snap.System.Connected,
	})
}

func (h *DeskHandler) Force(c echo.Context) error {
	req := &models.ForceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.force(c.Request().Context(), models.OrderSide(req.Side))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if res.Forwarded {
		return xhttp.AcceptedResponse(c, res)
	}
	return xhttp.SuccessResponse(c, res)
}

// ForceForm backs the FORCE BUY / FORCE SELL buttons and returns to the trades view.
func (h *DeskHandler) ForceForm(c echo.Context) error {
	req := &models.ForceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if _, err := h.force(c.Request().Context(), models.OrderSide(req.Side)); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/view/trades")
}

func (h *DeskHandler) force(ctx context.Context, side models.OrderSide) (models.ForceResult, error) {
	res, err := h.desk.ForceTrade(ctx, side)
	switch {
	case errors.Is(err, usecase.ErrDeskStopped):
		return res, xhttp.ServiceUnavailableError("desk is shutting down").WithError(err)
	case errors.Is(err, usecase.ErrInvalidSide):
		return res, xhttp.BadRequestError(err.Error())
	case err != nil:
		h.logger.Error("force trade", xlogger.Error(err))
		return res, err
	}
	return res, nil
}

func (h *DeskHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
