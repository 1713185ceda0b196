package history

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dentalcare/dentalcare/internal/platform/auth"
	"github.com/dentalcare/dentalcare/pkg/clinerr"
	"github.com/dentalcare/dentalcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleDentist, auth.RoleAssistant))
	read.GET("/visit-records", h.List)
	read.GET("/visit-records/:id", h.Get)
	read.GET("/patients/:patientId/visit-records", h.ListForPatient)
	read.GET("/patients/:patientId/chart", h.GetChart)

	write := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleDentist))
	write.POST("/visit-records", h.Create)
	write.PUT("/visit-records/:id", h.Update)
	write.DELETE("/visit-records/:id", h.Delete)
	write.PUT("/patients/:patientId/chart", h.UpdateChart)
}

func httpError(err error) error {
	if code := clinerr.HTTPStatus(err); code != http.StatusInternalServerError {
		return echo.NewHTTPError(code, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// visitRecordRequest is the create/update payload. When Chart is
// present the record and its odontogram are written as one unit.
type visitRecordRequest struct {
	VisitRecord
	ChartPayload *chartRequest `json:"chart,omitempty"`
}

type chartRequest struct {
	ToothStates  json.RawMessage `json:"tooth_states"`
	Observations *string         `json:"observations,omitempty"`
}

func (h *Handler) Create(c echo.Context) error {
	var req visitRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.VisitRecord.Chart = nil

	ctx := c.Request().Context()
	var err error
	if req.ChartPayload != nil {
		err = h.svc.CreateVisitRecordWithChart(ctx, &req.VisitRecord, req.ChartPayload.ToothStates, req.ChartPayload.Observations)
	} else {
		err = h.svc.CreateVisitRecord(ctx, &req.VisitRecord)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, req.VisitRecord)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.svc.GetVisitRecord(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListVisitRecords(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListForPatient(c echo.Context) error {
	items, err := h.svc.ListVisitRecordsForPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var v VisitRecord
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v.ID = id
	v.Chart = nil
	if err := h.svc.EditVisitRecord(c.Request().Context(), &v); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVisitRecord(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetChart returns the patient's current odontogram. 204 means the
// patient has no charted visit yet.
func (h *Handler) GetChart(c echo.Context) error {
	chart, err := h.svc.GetCurrentChart(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return httpError(err)
	}
	if chart == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, chart)
}

// UpdateChart appends a new odontogram snapshot for the patient.
func (h *Handler) UpdateChart(c echo.Context) error {
	var req chartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.UpdateChart(c.Request().Context(), c.Param("patientId"), req.ToothStates, req.Observations)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}
