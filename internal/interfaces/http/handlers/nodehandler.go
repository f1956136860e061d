package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meridian/internal/application/node/usecases"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

type NodeHandler struct {
	manageUC *usecases.ManageNodesUseCase
	importUC *usecases.ImportNodesUseCase
	pushUC   *usecases.PushIdentitiesUseCase
	logger   logger.Interface
}

func NewNodeHandler(
	manageUC *usecases.ManageNodesUseCase,
	importUC *usecases.ImportNodesUseCase,
	pushUC *usecases.PushIdentitiesUseCase,
	logger logger.Interface,
) *NodeHandler {
	return &NodeHandler{
		manageUC: manageUC,
		importUC: importUC,
		pushUC:   pushUC,
		logger:   logger,
	}
}

type CreateNodeRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Address  string                 `json:"address" binding:"required"`
	Port     int                    `json:"port" binding:"required"`
	Protocol string                 `json:"protocol" binding:"required,oneof=shadowsocks vmess vless trojan hysteria2"`
	Config   map[string]interface{} `json:"config"`
	PlanIDs  []uint                 `json:"plan_ids"`
}

type UpdateNodeRequest struct {
	Name      *string                `json:"name"`
	Address   *string                `json:"address"`
	Port      *int                   `json:"port"`
	Protocol  *string                `json:"protocol" binding:"omitempty,oneof=shadowsocks vmess vless trojan hysteria2"`
	Config    map[string]interface{} `json:"config"`
	Status    *string                `json:"status" binding:"omitempty,oneof=enabled disabled"`
	SortOrder *int                   `json:"sort_order"`
	PlanIDs   *[]uint                `json:"plan_ids"`
}

type ImportNodesRequest struct {
	AgentURL string `json:"agent_url" binding:"required"`
	Token    string `json:"token"`
	PlanIDs  []uint `json:"plan_ids"`
}

type PushIdentitiesRequest struct {
	AgentURL string `json:"agent_url" binding:"required"`
	Token    string `json:"token"`
}

func (h *NodeHandler) List(c *gin.Context) {
	result, err := h.manageUC.List(c.Request.Context(), usecases.ListNodesCommand{
		EnabledOnly: c.Query("enabled") == "true",
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result.Nodes)
}

func (h *NodeHandler) Create(c *gin.Context) {
	var req CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.manageUC.Create(c.Request.Context(), usecases.CreateNodeCommand{
		Name:     req.Name,
		Address:  req.Address,
		Port:     req.Port,
		Protocol: req.Protocol,
		Config:   req.Config,
		PlanIDs:  req.PlanIDs,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, view)
}

func (h *NodeHandler) Update(c *gin.Context) {
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := usecases.UpdateNodeCommand{
		NodeID:    nodeID,
		Name:      req.Name,
		Address:   req.Address,
		Port:      req.Port,
		Protocol:  req.Protocol,
		Config:    req.Config,
		Status:    req.Status,
		SortOrder: req.SortOrder,
	}
	if req.PlanIDs != nil {
		cmd.PlanIDs = *req.PlanIDs
		cmd.HasPlans = true
	}

	view, err := h.manageUC.Update(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "node updated", view)
}

func (h *NodeHandler) Delete(c *gin.Context) {
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.manageUC.Delete(c.Request.Context(), usecases.DeleteNodeCommand{NodeID: nodeID}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

func (h *NodeHandler) Import(c *gin.Context) {
	var req ImportNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.importUC.Execute(c.Request.Context(), usecases.ImportNodesCommand{
		AgentURL: req.AgentURL,
		Token:    req.Token,
		PlanIDs:  req.PlanIDs,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "nodes imported", result)
}

func (h *NodeHandler) PushIdentities(c *gin.Context) {
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PushIdentitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.pushUC.Execute(c.Request.Context(), usecases.PushIdentitiesCommand{
		NodeID:   nodeID,
		AgentURL: req.AgentURL,
		Token:    req.Token,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "identities pushed", result)
}
