package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/coachcal/coachcal/store"
)

type clientResponse struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
	RowStatus string `json:"rowStatus"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
}

func clientFromStore(client *store.Client) *clientResponse {
	return &clientResponse{
		UID:       client.UID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		Notes:     client.Notes,
		RowStatus: client.RowStatus.String(),
		CreatedTs: client.CreatedTs,
		UpdatedTs: client.UpdatedTs,
	}
}

func (s *APIV1Service) ListClients(c echo.Context) error {
	find := &store.FindClient{}
	if c.QueryParam("state") != "archived" {
		normal := store.Normal
		find.RowStatus = &normal
	}
	clients, err := s.Store.ListClients(c.Request().Context(), find)
	if err != nil {
		return httpError(err)
	}
	out := make([]*clientResponse, 0, len(clients))
	for _, client := range clients {
		out = append(out, clientFromStore(client))
	}
	return c.JSON(http.StatusOK, out)
}

type upsertClientRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

func (s *APIV1Service) CreateClient(c echo.Context) error {
	var req upsertClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Name == nil || *req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	create := &store.Client{
		UID:  shortuuid.New(),
		Name: *req.Name,
	}
	if req.Email != nil {
		create.Email = *req.Email
	}
	if req.Phone != nil {
		create.Phone = *req.Phone
	}
	if req.Notes != nil {
		create.Notes = *req.Notes
	}
	client, err := s.Store.CreateClient(c.Request().Context(), create)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, clientFromStore(client))
}

func (s *APIV1Service) GetClient(c echo.Context) error {
	client, err := s.findClient(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clientFromStore(client))
}

func (s *APIV1Service) UpdateClient(c echo.Context) error {
	client, err := s.findClient(c)
	if err != nil {
		return err
	}
	var req struct {
		upsertClientRequest
		RowStatus *string `json:"rowStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	now := time.Now().Unix()
	update := &store.UpdateClient{
		ID:        client.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
		UpdatedTs: &now,
	}
	if req.RowStatus != nil {
		rowStatus := store.RowStatus(*req.RowStatus)
		if rowStatus != store.Normal && rowStatus != store.Archived {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid row status")
		}
		update.RowStatus = &rowStatus
	}
	updated, err := s.Store.UpdateClient(c.Request().Context(), update)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, clientFromStore(updated))
}

func (s *APIV1Service) DeleteClient(c echo.Context) error {
	client, err := s.findClient(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteClient(c.Request().Context(), &store.DeleteClient{ID: client.ID}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) findClient(c echo.Context) (*store.Client, error) {
	uid := c.Param("uid")
	client, err := s.Store.GetClient(c.Request().Context(), &store.FindClient{UID: &uid})
	if err != nil {
		return nil, httpError(err)
	}
	if client == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "client not found")
	}
	return client, nil
}
