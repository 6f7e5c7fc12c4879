package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/datum"
	"github.com/tidepool-org/medical-data/medicaldata"
	"go.uber.org/zap"
)

type Handler struct {
	log      *zap.SugaredLogger
	sessions *SessionManager
}

func NewHandler(sessions *SessionManager, log *zap.SugaredLogger) *Handler {
	return &Handler{log: log, sessions: sessions}
}

func RegisterHandlers(e *echo.Echo, h *Handler) {
	v1 := e.Group("/v1")
	v1.POST("/sessions", h.CreateSession)
	v1.DELETE("/sessions/:id", h.DeleteSession)
	v1.POST("/sessions/:id/data", h.AddData)
	v1.GET("/sessions/:id/data", h.GetData)
	v1.GET("/sessions/:id/medical", h.GetMedicalData)
	v1.GET("/sessions/:id/endpoints", h.GetEndpoints)
	v1.GET("/sessions/:id/timezones", h.GetTimezones)
	v1.GET("/sessions/:id/fills", h.GetFills)
	v1.GET("/sessions/:id/basics", h.GetBasics)
	v1.GET("/sessions/:id/deviceparameters/grouped", h.GetGroupedDeviceParameters)
	v1.PUT("/sessions/:id/messages", h.EditMessage)
}

type createSessionRequest struct {
	BGUnits                 string `json:"bgUnits"`
	Timezone                string `json:"timezoneName"`
	DefaultSource           string `json:"defaultSource"`
	DefaultPumpManufacturer string `json:"defaultPumpManufacturer"`
	DateRangeStart          int64  `json:"dateRangeStart"`
	DateRangeEnd            int64  `json:"dateRangeEnd"`
}

func (h *Handler) CreateSession(c echo.Context) error {
	request := createSessionRequest{}
	if err := c.Bind(&request); err != nil {
		return err
	}

	opts := h.sessions.DefaultOptions()
	if request.BGUnits != "" {
		opts.BGUnits = config.BGUnit(request.BGUnits)
	}
	if request.Timezone != "" {
		opts.Timezone = request.Timezone
		opts.TimePrefs.TimezoneName = request.Timezone
	}
	if request.DefaultSource != "" {
		opts.DefaultSource = request.DefaultSource
	}
	if request.DefaultPumpManufacturer != "" {
		opts.DefaultPumpManufacturer = request.DefaultPumpManufacturer
	}
	opts.DateRange = config.DateRange{Start: request.DateRangeStart, End: request.DateRangeEnd}
	opts = opts.WithDerived()

	session := h.sessions.Create(opts)
	h.log.Infow("session created", "sessionId", session.ID, "bgUnits", opts.BGUnits)
	return c.JSON(http.StatusCreated, map[string]string{"sessionId": session.ID})
}

func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type addDataResponse struct {
	Diagnostics []medicaldata.Diagnostic `json:"diagnostics"`
	Endpoints   [2]string                `json:"endpoints"`
	HasDiabetes bool                     `json:"hasDiabetesData"`
}

func (h *Handler) AddData(c echo.Context) error {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return err
	}

	var raws []datum.Raw
	if err := c.Bind(&raws); err != nil {
		return err
	}

	response := addDataResponse{}
	_ = session.With(func(service *medicaldata.Service) error {
		response.Diagnostics = service.Add(raws)
		response.Endpoints = service.Endpoints()
		response.HasDiabetes = service.HasDiabetesData()
		return nil
	})
	if response.Diagnostics == nil {
		response.Diagnostics = []medicaldata.Diagnostic{}
	}
	return c.JSON(http.StatusOK, response)
}

func (h *Handler) GetData(c echo.Context) error {
	return h.withSession(c, func(service *medicaldata.Service) (interface{}, error) {
		if c.QueryParam("grouped") == "true" {
			return service.Grouped(), nil
		}
		return service.Data(), nil
	})
}

func (h *Handler) GetMedicalData(c echo.Context) error {
	return h.withSession(c, func(service *medicaldata.Service) (interface{}, error) {
		return service.MedicalData(), nil
	})
}

func (h *Handler) GetEndpoints(c echo.Context) error {
	return h.withSession(c, func(service *medicaldata.Service) (interface{}, error) {
		return service.Endpoints(), nil
	})
}

func (h *Handler) GetTimezones(c echo.Context) error {
	return h.withSession(c, func(service *medicaldata.Service) (interface{}, error) {
		return service.TimezoneList(), nil
	})
}

func (h *Handler) GetFills(c echo.Context) error {
	return h.withSession(c, func(service *medicaldata.Service) (interface{}, error) {
		return service.Fills(), nil
	})
}

func (h *Handler) GetBasics(c echo.Context) error {
	return h.withSession(c, func(service *medicaldata.Service) (interface{}, error) {
		return service.Basics(), nil
	})
}

func (h *Handler) GetGroupedDeviceParameters(c echo.Context) error {
	return h.withSession(c, func(service *medicaldata.Service) (interface{}, error) {
		return datum.GroupDeviceParameterChanges(service.MedicalData().DeviceParametersChanges), nil
	})
}

func (h *Handler) EditMessage(c echo.Context) error {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return err
	}

	raw := datum.Raw{}
	if err := c.Bind(&raw); err != nil {
		return err
	}

	var message *datum.Message
	err = session.With(func(service *medicaldata.Service) error {
		var editErr error
		message, editErr = service.EditMessage(raw)
		return editErr
	})
	if err != nil {
		return err
	}
	if message == nil {
		return c.NoContent(http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, message)
}

func (h *Handler) withSession(c echo.Context, fn func(service *medicaldata.Service) (interface{}, error)) error {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return err
	}
	var result interface{}
	err = session.With(func(service *medicaldata.Service) error {
		var innerErr error
		result, innerErr = fn(service)
		return innerErr
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
