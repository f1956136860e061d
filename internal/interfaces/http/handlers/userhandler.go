package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	signinuc "meridian/internal/application/signin/usecases"
	trafficuc "meridian/internal/application/traffic/usecases"
	"meridian/internal/application/user/usecases"
	"meridian/internal/interfaces/http/middleware"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

type UserHandler struct {
	manageUsersUC   *usecases.ManageUsersUseCase
	manageClientsUC *usecases.ManageClientsUseCase
	signinUC        *signinuc.DailySigninUseCase
	userTrafficUC   *trafficuc.GetUserTrafficUseCase
	logger          logger.Interface
}

func NewUserHandler(
	manageUsersUC *usecases.ManageUsersUseCase,
	manageClientsUC *usecases.ManageClientsUseCase,
	signinUC *signinuc.DailySigninUseCase,
	userTrafficUC *trafficuc.GetUserTrafficUseCase,
	logger logger.Interface,
) *UserHandler {
	return &UserHandler{
		manageUsersUC:   manageUsersUC,
		manageClientsUC: manageClientsUC,
		signinUC:        signinUC,
		userTrafficUC:   userTrafficUC,
		logger:          logger,
	}
}

type CreateClientRequest struct {
	Remark string `json:"remark"`
}

type SetClientEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type SetBannedRequest struct {
	Banned *bool `json:"banned" binding:"required"`
}

// Me serves the authenticated user's own detail.
func (h *UserHandler) Me(c *gin.Context) {
	detail, err := h.manageUsersUC.Detail(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", detail)
}

func (h *UserHandler) ListClients(c *gin.Context) {
	views, err := h.manageClientsUC.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", views)
}

func (h *UserHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.manageClientsUC.Create(c.Request.Context(), usecases.CreateClientCommand{
		UserID: middleware.UserID(c),
		Remark: req.Remark,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, view)
}

func (h *UserHandler) SetClientEnabled(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetClientEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.manageClientsUC.SetEnabled(c.Request.Context(), usecases.SetClientEnabledCommand{
		UserID:   middleware.UserID(c),
		ClientID: clientID,
		Enabled:  *req.Enabled,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "client updated", view)
}

func (h *UserHandler) Signin(c *gin.Context) {
	result, err := h.signinUC.Execute(c.Request.Context(), signinuc.DailySigninCommand{
		UserID: middleware.UserID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *UserHandler) Traffic(c *gin.Context) {
	result, err := h.userTrafficUC.Execute(c.Request.Context(), trafficuc.GetUserTrafficCommand{
		UserID: middleware.UserID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListUsers is the admin account list.
func (h *UserHandler) ListUsers(c *gin.Context) {
	pagination := utils.ParsePagination(c)
	result, err := h.manageUsersUC.List(c.Request.Context(), usecases.ListUsersCommand{
		Status:     c.Query("status"),
		Role:       c.Query("role"),
		Pagination: pagination,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, result.Users, result.Total, pagination.Page, pagination.PageSize)
}

// UserDetail is the admin account detail.
func (h *UserHandler) UserDetail(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.manageUsersUC.Detail(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", detail)
}

// SetBanned bans or unbans an account.
func (h *UserHandler) SetBanned(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetBannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.manageUsersUC.SetBanned(c.Request.Context(), userID, *req.Banned); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "user status updated", nil)
}
