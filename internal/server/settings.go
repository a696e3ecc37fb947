package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	settingsdomain "github.com/smallbiznis/tillpoint/internal/settings/domain"
)

type settingsListResponse struct {
	Settings []settingsdomain.View `json:"settings"`
	Count    int                   `json:"count"`
}

// ListSettings returns store settings. Unauthenticated callers only see the
// public subset; the register uses this to render branding before login.
func (s *Server) ListSettings(c *gin.Context) {
	_, authenticated := currentUser(c)

	req := settingsdomain.ListRequest{
		Category:   strings.TrimSpace(c.Query("category")),
		PublicOnly: !authenticated || c.Query("public_only") == "true",
	}

	items, err := s.settingsSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]settingsdomain.View, 0, len(items))
	for _, item := range items {
		views = append(views, item.View())
	}
	c.JSON(http.StatusOK, settingsListResponse{Settings: views, Count: len(views)})
}

func (s *Server) GetSetting(c *gin.Context) {
	setting, err := s.settingsSvc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, authenticated := currentUser(c); !setting.IsPublic && !authenticated {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"setting": setting.View()})
}

type upsertSettingRequest struct {
	Value       any     `json:"value"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsPublic    *bool   `json:"is_public"`
}

func (s *Server) UpsertSetting(c *gin.Context) {
	var req upsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Value == nil {
		AbortWithError(c, newValidationError("value", "setting_value_required", "value is required"))
		return
	}

	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	setting, err := s.settingsSvc.Upsert(c.Request.Context(), settingsdomain.UpsertRequest{
		Key:         c.Param("key"),
		Value:       req.Value,
		Description: req.Description,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
		ActorID:     user.ID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorID:    user.ID,
		ActorName:  user.Username,
		Action:     "settings.update",
		EntityType: "setting",
		EntityID:   setting.Key,
		Detail:     map[string]any{"value": setting.Value, "value_type": string(setting.ValueType)},
	})

	c.JSON(http.StatusOK, gin.H{"setting": setting.View()})
}
