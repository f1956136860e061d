package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meridian/internal/application/catalog/usecases"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

type CatalogHandler struct {
	groupsUC *usecases.ManageGroupsUseCase
	plansUC  *usecases.ManagePlansUseCase
	logger   logger.Interface
}

func NewCatalogHandler(
	groupsUC *usecases.ManageGroupsUseCase,
	plansUC *usecases.ManagePlansUseCase,
	logger logger.Interface,
) *CatalogHandler {
	return &CatalogHandler{
		groupsUC: groupsUC,
		plansUC:  plansUC,
		logger:   logger,
	}
}

type CreateGroupRequest struct {
	GroupKey       string `json:"group_key" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Level          int    `json:"level"`
	IsExclusive    bool   `json:"is_exclusive"`
	Connections    int    `json:"connections"`
	SpeedLimitMbps int    `json:"speed_limit_mbps"`
}

type UpdateGroupRequest struct {
	Name           *string `json:"name"`
	Level          *int    `json:"level"`
	IsExclusive    *bool   `json:"is_exclusive"`
	Status         *string `json:"status" binding:"omitempty,oneof=enabled disabled"`
	IsPublic       *bool   `json:"is_public"`
	SortOrder      *int    `json:"sort_order"`
	Connections    *int    `json:"connections"`
	SpeedLimitMbps *int    `json:"speed_limit_mbps"`
}

type CreatePlanRequest struct {
	GroupID           uint   `json:"group_id" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	Price             int64  `json:"price"`
	DurationDays      int    `json:"duration_days" binding:"required"`
	TrafficLimitBytes int64  `json:"traffic_limit_bytes"`
	NodeIDs           []uint `json:"node_ids"`
}

type UpdatePlanRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Price             *int64  `json:"price"`
	DurationDays      *int    `json:"duration_days"`
	TrafficLimitBytes *int64  `json:"traffic_limit_bytes"`
	Status            *string `json:"status" binding:"omitempty,oneof=enabled disabled"`
	IsPublic          *bool   `json:"is_public"`
	SortOrder         *int    `json:"sort_order"`
	NodeIDs           *[]uint `json:"node_ids"`
}

// ListPublicGroups serves the storefront group list.
func (h *CatalogHandler) ListPublicGroups(c *gin.Context) {
	result, err := h.groupsUC.List(c.Request.Context(), usecases.ListGroupsCommand{PublicOnly: true})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result.Groups)
}

// ListPublicPlans serves the storefront plan list.
func (h *CatalogHandler) ListPublicPlans(c *gin.Context) {
	result, err := h.plansUC.List(c.Request.Context(), usecases.ListPlansCommand{PublicOnly: true})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result.Plans)
}

func (h *CatalogHandler) ListGroups(c *gin.Context) {
	result, err := h.groupsUC.List(c.Request.Context(), usecases.ListGroupsCommand{})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result.Groups)
}

func (h *CatalogHandler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.groupsUC.Create(c.Request.Context(), usecases.CreateGroupCommand{
		GroupKey:       req.GroupKey,
		Name:           req.Name,
		Level:          req.Level,
		IsExclusive:    req.IsExclusive,
		Connections:    req.Connections,
		SpeedLimitMbps: req.SpeedLimitMbps,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, view)
}

func (h *CatalogHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.groupsUC.Update(c.Request.Context(), usecases.UpdateGroupCommand{
		GroupID:        groupID,
		Name:           req.Name,
		Level:          req.Level,
		IsExclusive:    req.IsExclusive,
		Status:         req.Status,
		IsPublic:       req.IsPublic,
		SortOrder:      req.SortOrder,
		Connections:    req.Connections,
		SpeedLimitMbps: req.SpeedLimitMbps,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "group updated", view)
}

func (h *CatalogHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.groupsUC.Delete(c.Request.Context(), usecases.DeleteGroupCommand{GroupID: groupID}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

func (h *CatalogHandler) ListPlans(c *gin.Context) {
	var groupID uint
	if raw := c.Query("group_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid group_id")
			return
		}
		groupID = uint(parsed)
	}

	result, err := h.plansUC.List(c.Request.Context(), usecases.ListPlansCommand{GroupID: groupID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result.Plans)
}

func (h *CatalogHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.plansUC.Create(c.Request.Context(), usecases.CreatePlanCommand{
		GroupID:           req.GroupID,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		DurationDays:      req.DurationDays,
		TrafficLimitBytes: req.TrafficLimitBytes,
		NodeIDs:           req.NodeIDs,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, view)
}

func (h *CatalogHandler) UpdatePlan(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := usecases.UpdatePlanCommand{
		PlanID:            planID,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		DurationDays:      req.DurationDays,
		TrafficLimitBytes: req.TrafficLimitBytes,
		Status:            req.Status,
		IsPublic:          req.IsPublic,
		SortOrder:         req.SortOrder,
	}
	if req.NodeIDs != nil {
		cmd.NodeIDs = *req.NodeIDs
		cmd.HasNodes = true
	}

	view, err := h.plansUC.Update(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "plan updated", view)
}

func (h *CatalogHandler) DeletePlan(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.plansUC.Delete(c.Request.Context(), usecases.DeletePlanCommand{PlanID: planID}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

// parseIDParam parses a positive integer path parameter, writing the error
// response itself on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return uint(parsed), true
}

// parseQueryID parses a positive integer query value, writing the error
// response itself on failure.
func parseQueryID(c *gin.Context, raw string) (uint, bool) {
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid id value")
		return 0, false
	}
	return uint(parsed), true
}
