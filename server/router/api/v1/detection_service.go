package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coachcal/coachcal/store"
)

type detectionSettingResponse struct {
	CoachingKeywords   []string `json:"coachingKeywords"`
	ClassKeywords      []string `json:"classKeywords"`
	ExclusionKeywords  []string `json:"exclusionKeywords"`
	CoachEmailPatterns []string `json:"coachEmailPatterns"`
	UpdatedTs          int64    `json:"updatedTs"`
}

func detectionSettingFromStore(setting *store.DetectionSetting) *detectionSettingResponse {
	if setting == nil {
		// No row yet; the matcher falls back to its built-in keyword
		// lists, so an empty payload is an accurate answer.
		return &detectionSettingResponse{}
	}
	return &detectionSettingResponse{
		CoachingKeywords:   setting.CoachingKeywords,
		ClassKeywords:      setting.ClassKeywords,
		ExclusionKeywords:  setting.ExclusionKeywords,
		CoachEmailPatterns: setting.CoachEmailPatterns,
		UpdatedTs:          setting.UpdatedTs,
	}
}

func (s *APIV1Service) GetDetectionSetting(c echo.Context) error {
	setting, err := s.Store.GetDetectionSetting(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detectionSettingFromStore(setting))
}

type updateDetectionSettingRequest struct {
	CoachingKeywords   []string `json:"coachingKeywords"`
	ClassKeywords      []string `json:"classKeywords"`
	ExclusionKeywords  []string `json:"exclusionKeywords"`
	CoachEmailPatterns []string `json:"coachEmailPatterns"`
}

func (s *APIV1Service) UpdateDetectionSetting(c echo.Context) error {
	var req updateDetectionSettingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	now := time.Now().Unix()
	setting, err := s.Store.UpsertDetectionSetting(c.Request().Context(), &store.UpdateDetectionSetting{
		CoachingKeywords:   req.CoachingKeywords,
		ClassKeywords:      req.ClassKeywords,
		ExclusionKeywords:  req.ExclusionKeywords,
		CoachEmailPatterns: req.CoachEmailPatterns,
		UpdatedTs:          &now,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detectionSettingFromStore(setting))
}
