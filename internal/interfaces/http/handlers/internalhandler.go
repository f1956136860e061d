package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	nodeuc "meridian/internal/application/node/usecases"
	trafficuc "meridian/internal/application/traffic/usecases"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

// InternalHandler serves the node gateway API. Every route sits behind the
// internal token middleware; callers are node agents, not browsers.
type InternalHandler struct {
	authorizeUC     *nodeuc.AuthorizeConnectionUseCase
	allowedUC       *nodeuc.AllowedIdentitiesUseCase
	registerUC      *nodeuc.RegisterNodeUseCase
	reportTrafficUC *trafficuc.ReportTrafficUseCase
	userTrafficUC   *trafficuc.GetUserTrafficUseCase
	logger          logger.Interface
}

func NewInternalHandler(
	authorizeUC *nodeuc.AuthorizeConnectionUseCase,
	allowedUC *nodeuc.AllowedIdentitiesUseCase,
	registerUC *nodeuc.RegisterNodeUseCase,
	reportTrafficUC *trafficuc.ReportTrafficUseCase,
	userTrafficUC *trafficuc.GetUserTrafficUseCase,
	logger logger.Interface,
) *InternalHandler {
	return &InternalHandler{
		authorizeUC:     authorizeUC,
		allowedUC:       allowedUC,
		registerUC:      registerUC,
		reportTrafficUC: reportTrafficUC,
		userTrafficUC:   userTrafficUC,
		logger:          logger,
	}
}

type AuthCheckRequest struct {
	UUID   string `json:"uuid" binding:"required"`
	NodeID uint   `json:"node_id"`
}

type ReportTrafficRequest struct {
	UUID     string `json:"uuid" binding:"required"`
	NodeID   uint   `json:"node_id" binding:"required"`
	Upload   int64  `json:"upload"`
	Download int64  `json:"download"`
}

type RegisterNodeRequest struct {
	Name     string                 `json:"name"`
	Address  string                 `json:"address" binding:"required"`
	Port     int                    `json:"port" binding:"required"`
	Protocol string                 `json:"protocol" binding:"required"`
	Config   map[string]interface{} `json:"config"`
	PlanIDs  []uint                 `json:"plan_ids"`
}

// AuthCheck answers the per-connection authorization question. A denial is a
// 200 with allow=false so gateways can distinguish policy from transport
// failures.
func (h *InternalHandler) AuthCheck(c *gin.Context) {
	var req AuthCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authorizeUC.Execute(c.Request.Context(), nodeuc.AuthorizeConnectionCommand{
		UUID:   req.UUID,
		NodeID: req.NodeID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	payload := gin.H{"allow": result.Allowed}
	if result.Allowed {
		payload["user_id"] = result.UserID
		payload["active_plan_ids"] = result.ActivePlanIDs
	} else {
		payload["reason"] = result.Reason
	}
	utils.SuccessResponse(c, http.StatusOK, "", payload)
}

// AllowedUUIDs serves the full allowed identity list for a node.
func (h *InternalHandler) AllowedUUIDs(c *gin.Context) {
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.allowedUC.Execute(c.Request.Context(), nodeuc.AllowedIdentitiesCommand{NodeID: nodeID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"uuids": result.UUIDs})
}

// ReportTraffic settles a usage report against the entitlement ledger.
func (h *InternalHandler) ReportTraffic(c *gin.Context) {
	var req ReportTrafficRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.reportTrafficUC.Execute(c.Request.Context(), trafficuc.ReportTrafficCommand{
		UUID:     req.UUID,
		NodeID:   req.NodeID,
		Upload:   req.Upload,
		Download: req.Download,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// UserTraffic reports a user's aggregate usage to the gateway.
func (h *InternalHandler) UserTraffic(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.userTrafficUC.Execute(c.Request.Context(), trafficuc.GetUserTrafficCommand{UserID: userID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// RegisterNode is the idempotent agent self-registration endpoint.
func (h *InternalHandler) RegisterNode(c *gin.Context) {
	var req RegisterNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.registerUC.Execute(c.Request.Context(), nodeuc.RegisterNodeCommand{
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

	if result.Created {
		utils.CreatedResponse(c, result)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "node refreshed", result)
}
