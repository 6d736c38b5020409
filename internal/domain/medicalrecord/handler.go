package medicalrecord

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinica/clinica/internal/platform/auth"
	"github.com/clinica/clinica/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the medical record endpoints. Clinical data is
// restricted to the administrator and cardiologist roles.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleCardiologist))

	g.GET("/medical-records", h.ListRecords)
	g.GET("/medical-records/patients-without", h.ListPatientsWithout)
	g.GET("/medical-records/:id", h.GetRecord)
	g.GET("/medical-records/by-patient/:patient_id", h.GetRecordByPatient)
	g.POST("/medical-records", h.CreateRecord)
	g.PUT("/medical-records/:id", h.UpdateRecord)
	g.DELETE("/medical-records/:id", h.DeleteRecord)

	g.GET("/medical-records/:id/consultations", h.ListConsultations)
	g.GET("/consultations/:id", h.GetConsultation)
	g.POST("/consultations", h.CreateConsultation)
	g.PUT("/consultations/:id", h.UpdateConsultation)
	g.DELETE("/consultations/:id", h.DeleteConsultation)

	g.GET("/consultations/:id/prescriptions", h.ListPrescriptions)
	g.POST("/prescriptions", h.CreatePrescription)
	g.PUT("/prescriptions/:id", h.UpdatePrescription)
	g.DELETE("/prescriptions/:id", h.DeletePrescription)

	g.GET("/consultations/:id/studies", h.ListStudies)
	g.POST("/studies", h.CreateStudy)
	g.PUT("/studies/:id", h.UpdateStudy)
	g.DELETE("/studies/:id", h.DeleteStudy)
}

// mapError covers write paths, where an unclassified error is a validation
// failure. Read paths use mapReadError: anything but ErrNotFound is a server
// fault there.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRecordExists),
		errors.Is(err, ErrHasConsultations),
		errors.Is(err, ErrHasChildren):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func mapReadError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var rec MedicalRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateRecord(c.Request().Context(), &rec); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return mapReadError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetRecordByPatient(c echo.Context) error {
	patientID, err := parseID(c, "patient_id")
	if err != nil {
		return err
	}
	rec, err := h.svc.GetRecordByPatient(c.Request().Context(), patientID)
	if err != nil {
		return mapReadError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	rows, total, err := h.svc.ListRecords(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(rows, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPatientsWithout(c echo.Context) error {
	items, err := h.svc.ListPatientsWithoutRecord(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var rec MedicalRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = id
	if err := h.svc.UpdateRecord(c.Request().Context(), &rec); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateConsultation(c echo.Context) error {
	var con Consultation
	if err := c.Bind(&con); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateConsultation(c.Request().Context(), &con); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, con)
}

func (h *Handler) GetConsultation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	con, err := h.svc.GetConsultation(c.Request().Context(), id)
	if err != nil {
		return mapReadError(err)
	}
	return c.JSON(http.StatusOK, con)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	recordID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListConsultations(c.Request().Context(), recordID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var con Consultation
	if err := c.Bind(&con); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	con.ID = id
	if err := h.svc.UpdateConsultation(c.Request().Context(), &con); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, con)
}

func (h *Handler) DeleteConsultation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteConsultation(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), &p); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	consultationID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListPrescriptions(c.Request().Context(), consultationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePrescription(c.Request().Context(), &p); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePrescription(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateStudy(c echo.Context) error {
	var st Study
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateStudy(c.Request().Context(), &st); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) ListStudies(c echo.Context) error {
	consultationID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListStudies(c.Request().Context(), consultationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateStudy(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var st Study
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st.ID = id
	if err := h.svc.UpdateStudy(c.Request().Context(), &st); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStudy(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteStudy(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
