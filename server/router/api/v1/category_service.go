package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coachcal/coachcal/store"
)

type categoryResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	SortOrder int32  `json:"sortOrder"`
}

func categoryFromStore(category *store.Category) *categoryResponse {
	return &categoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Color:     category.Color,
		SortOrder: category.SortOrder,
	}
}

func (s *APIV1Service) ListCategories(c echo.Context) error {
	categories, err := s.Store.ListCategories(c.Request().Context(), &store.FindCategory{})
	if err != nil {
		return httpError(err)
	}
	out := make([]*categoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, categoryFromStore(category))
	}
	return c.JSON(http.StatusOK, out)
}

type upsertCategoryRequest struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	SortOrder *int32  `json:"sortOrder"`
}

func (s *APIV1Service) CreateCategory(c echo.Context) error {
	var req upsertCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Name == nil || *req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	create := &store.Category{Name: *req.Name}
	if req.Color != nil {
		create.Color = *req.Color
	}
	if req.SortOrder != nil {
		create.SortOrder = *req.SortOrder
	}
	category, err := s.Store.CreateCategory(c.Request().Context(), create)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categoryFromStore(category))
}

func (s *APIV1Service) UpdateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req upsertCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	now := time.Now().Unix()
	category, err := s.Store.UpdateCategory(c.Request().Context(), &store.UpdateCategory{
		ID:        id,
		Name:      req.Name,
		Color:     req.Color,
		SortOrder: req.SortOrder,
		UpdatedTs: &now,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categoryFromStore(category))
}

func (s *APIV1Service) DeleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteCategory(c.Request().Context(), &store.DeleteCategory{ID: id}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return int32(id), nil
}
