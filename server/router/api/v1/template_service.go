package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/coachcal/coachcal/store"
)

type weekTemplateResponse struct {
	UID       string              `json:"uid"`
	Name      string              `json:"name"`
	Color     string              `json:"color,omitempty"`
	Days      []store.TemplateDay `json:"days"`
	CreatedTs int64               `json:"createdTs"`
	UpdatedTs int64               `json:"updatedTs"`
	ID        int32               `json:"id"`
}

func weekTemplateFromStore(template *store.WeekTemplate) *weekTemplateResponse {
	return &weekTemplateResponse{
		UID:       template.UID,
		Name:      template.Name,
		Color:     template.Color,
		Days:      template.Days,
		CreatedTs: template.CreatedTs,
		UpdatedTs: template.UpdatedTs,
		ID:        template.ID,
	}
}

// validTemplateDays rejects entries the rule builder would silently
// skip later, so mistakes surface at save time.
func validTemplateDays(days []store.TemplateDay) error {
	for _, day := range days {
		if day.Time != "" && day.IsAllDay {
			return echo.NewHTTPError(http.StatusBadRequest, "a day cannot be both timed and all-day")
		}
	}
	return nil
}

func (s *APIV1Service) ListWeekTemplates(c echo.Context) error {
	templates, err := s.Store.ListWeekTemplates(c.Request().Context(), &store.FindWeekTemplate{})
	if err != nil {
		return httpError(err)
	}
	out := make([]*weekTemplateResponse, 0, len(templates))
	for _, template := range templates {
		out = append(out, weekTemplateFromStore(template))
	}
	return c.JSON(http.StatusOK, out)
}

type upsertWeekTemplateRequest struct {
	Name  *string             `json:"name"`
	Color *string             `json:"color"`
	Days  []store.TemplateDay `json:"days"`
}

func (s *APIV1Service) CreateWeekTemplate(c echo.Context) error {
	var req upsertWeekTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Name == nil || *req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if err := validTemplateDays(req.Days); err != nil {
		return err
	}
	create := &store.WeekTemplate{
		UID:  shortuuid.New(),
		Name: *req.Name,
		Days: req.Days,
	}
	if req.Color != nil {
		create.Color = *req.Color
	}
	template, err := s.Store.CreateWeekTemplate(c.Request().Context(), create)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, weekTemplateFromStore(template))
}

func (s *APIV1Service) GetWeekTemplate(c echo.Context) error {
	template, err := s.findWeekTemplate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, weekTemplateFromStore(template))
}

func (s *APIV1Service) UpdateWeekTemplate(c echo.Context) error {
	template, err := s.findWeekTemplate(c)
	if err != nil {
		return err
	}
	var req upsertWeekTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if err := validTemplateDays(req.Days); err != nil {
		return err
	}
	now := time.Now().Unix()
	updated, err := s.Store.UpdateWeekTemplate(c.Request().Context(), &store.UpdateWeekTemplate{
		ID:        template.ID,
		Name:      req.Name,
		Color:     req.Color,
		Days:      req.Days,
		UpdatedTs: &now,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, weekTemplateFromStore(updated))
}

func (s *APIV1Service) DeleteWeekTemplate(c echo.Context) error {
	template, err := s.findWeekTemplate(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteWeekTemplate(c.Request().Context(), &store.DeleteWeekTemplate{ID: template.ID}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) findWeekTemplate(c echo.Context) (*store.WeekTemplate, error) {
	uid := c.Param("uid")
	template, err := s.Store.GetWeekTemplate(c.Request().Context(), &store.FindWeekTemplate{UID: &uid})
	if err != nil {
		return nil, httpError(err)
	}
	if template == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "template not found")
	}
	return template, nil
}
