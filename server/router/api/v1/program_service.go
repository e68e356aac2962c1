package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/coachcal/coachcal/store"
)

type clientProgramResponse struct {
	UID       string         `json:"uid"`
	ClientID  string         `json:"clientId"`
	Status    string         `json:"status"`
	Periods   []store.Period `json:"periods"`
	StartTs   int64          `json:"startTs"`
	EndTs     int64          `json:"endTs"`
	CreatedTs int64          `json:"createdTs"`
	UpdatedTs int64          `json:"updatedTs"`
	ID        int32          `json:"id"`
}

func clientProgramFromStore(program *store.ClientProgram) *clientProgramResponse {
	return &clientProgramResponse{
		UID:       program.UID,
		ClientID:  program.ClientID,
		Status:    string(program.Status),
		Periods:   program.Periods,
		StartTs:   program.StartTs,
		EndTs:     program.EndTs,
		CreatedTs: program.CreatedTs,
		UpdatedTs: program.UpdatedTs,
		ID:        program.ID,
	}
}

func parseProgramStatus(raw string) (store.ProgramStatus, error) {
	status := store.ProgramStatus(raw)
	switch status {
	case store.ProgramStatusActive, store.ProgramStatusCompleted, store.ProgramStatusPaused, store.ProgramStatusCancelled:
		return status, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "invalid program status")
}

func validPeriods(periods []store.Period) error {
	for _, period := range periods {
		if period.ID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "period id is required")
		}
		if period.StartTs >= period.EndTs {
			return echo.NewHTTPError(http.StatusBadRequest, "period start must precede its end")
		}
	}
	return nil
}

func (s *APIV1Service) ListClientPrograms(c echo.Context) error {
	find := &store.FindClientProgram{}
	if clientID := c.QueryParam("clientId"); clientID != "" {
		find.ClientID = &clientID
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, err := parseProgramStatus(raw)
		if err != nil {
			return err
		}
		find.Status = &status
	}
	programs, err := s.Store.ListClientPrograms(c.Request().Context(), find)
	if err != nil {
		return httpError(err)
	}
	out := make([]*clientProgramResponse, 0, len(programs))
	for _, program := range programs {
		out = append(out, clientProgramFromStore(program))
	}
	return c.JSON(http.StatusOK, out)
}

type createClientProgramRequest struct {
	ClientID string         `json:"clientId"`
	Status   string         `json:"status"`
	Periods  []store.Period `json:"periods"`
	StartTs  int64          `json:"startTs"`
	EndTs    int64          `json:"endTs"`
}

func (s *APIV1Service) CreateClientProgram(c echo.Context) error {
	var req createClientProgramRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.ClientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "clientId is required")
	}
	if err := validPeriods(req.Periods); err != nil {
		return err
	}
	status := store.ProgramStatusActive
	if req.Status != "" {
		var err error
		if status, err = parseProgramStatus(req.Status); err != nil {
			return err
		}
	}
	client, err := s.Store.GetClient(c.Request().Context(), &store.FindClient{UID: &req.ClientID})
	if err != nil {
		return httpError(err)
	}
	if client == nil {
		return echo.NewHTTPError(http.StatusNotFound, "client not found")
	}
	program, err := s.Store.CreateClientProgram(c.Request().Context(), &store.ClientProgram{
		UID:      shortuuid.New(),
		ClientID: req.ClientID,
		Status:   status,
		Periods:  req.Periods,
		StartTs:  req.StartTs,
		EndTs:    req.EndTs,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, clientProgramFromStore(program))
}

type updateClientProgramRequest struct {
	Status  *string        `json:"status"`
	Periods []store.Period `json:"periods"`
	StartTs *int64         `json:"startTs"`
	EndTs   *int64         `json:"endTs"`
}

func (s *APIV1Service) UpdateClientProgram(c echo.Context) error {
	program, err := s.findClientProgram(c)
	if err != nil {
		return err
	}
	var req updateClientProgramRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if err := validPeriods(req.Periods); err != nil {
		return err
	}
	now := time.Now().Unix()
	update := &store.UpdateClientProgram{
		ID:        program.ID,
		Periods:   req.Periods,
		StartTs:   req.StartTs,
		EndTs:     req.EndTs,
		UpdatedTs: &now,
	}
	if req.Status != nil {
		status, err := parseProgramStatus(*req.Status)
		if err != nil {
			return err
		}
		update.Status = &status
	}
	updated, err := s.Store.UpdateClientProgram(c.Request().Context(), update)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, clientProgramFromStore(updated))
}

func (s *APIV1Service) DeleteClientProgram(c echo.Context) error {
	program, err := s.findClientProgram(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteClientProgram(c.Request().Context(), &store.DeleteClientProgram{ID: program.ID}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) findClientProgram(c echo.Context) (*store.ClientProgram, error) {
	uid := c.Param("uid")
	programs, err := s.Store.ListClientPrograms(c.Request().Context(), &store.FindClientProgram{UID: &uid})
	if err != nil {
		return nil, httpError(err)
	}
	if len(programs) == 0 {
		return nil, echo.NewHTTPError(http.StatusNotFound, "program not found")
	}
	return programs[0], nil
}
