package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meridian/internal/application/order/usecases"
	"meridian/internal/interfaces/http/middleware"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

type OrderHandler struct {
	createOrderUC    *usecases.CreateOrderUseCase
	payOrderUC       *usecases.PayOrderUseCase
	cancelOrderUC    *usecases.CancelOrderUseCase
	forceCancelUC    *usecases.ForceCancelOrderUseCase
	listOrdersUC     *usecases.ListOrdersUseCase
	entitlementsUC   *usecases.GetActiveEntitlementsUseCase
	remainingUC      *usecases.GetRemainingUseCase
	unsubscribeUC    *usecases.UnsubscribeUseCase
	upgradePreviewUC *usecases.UpgradePreviewUseCase
	upgradeConfirmUC *usecases.UpgradeConfirmUseCase
	logger           logger.Interface
}

func NewOrderHandler(
	createOrderUC *usecases.CreateOrderUseCase,
	payOrderUC *usecases.PayOrderUseCase,
	cancelOrderUC *usecases.CancelOrderUseCase,
	forceCancelUC *usecases.ForceCancelOrderUseCase,
	listOrdersUC *usecases.ListOrdersUseCase,
	entitlementsUC *usecases.GetActiveEntitlementsUseCase,
	remainingUC *usecases.GetRemainingUseCase,
	unsubscribeUC *usecases.UnsubscribeUseCase,
	upgradePreviewUC *usecases.UpgradePreviewUseCase,
	upgradeConfirmUC *usecases.UpgradeConfirmUseCase,
	logger logger.Interface,
) *OrderHandler {
	return &OrderHandler{
		createOrderUC:    createOrderUC,
		payOrderUC:       payOrderUC,
		cancelOrderUC:    cancelOrderUC,
		forceCancelUC:    forceCancelUC,
		listOrdersUC:     listOrdersUC,
		entitlementsUC:   entitlementsUC,
		remainingUC:      remainingUC,
		unsubscribeUC:    unsubscribeUC,
		upgradePreviewUC: upgradePreviewUC,
		upgradeConfirmUC: upgradeConfirmUC,
		logger:           logger,
	}
}

type CreateOrderRequest struct {
	PlanID uint   `json:"plan_id" binding:"required"`
	Remark string `json:"remark"`
	UserID uint   `json:"user_id"`
}

type PayOrderRequest struct {
	PayMethod string `json:"pay_method"`
}

type UnsubscribeRequest struct {
	EntitlementID uint   `json:"entitlement_id" binding:"required"`
	DeductDays    int    `json:"deduct_days"`
	DeductBytes   int64  `json:"deduct_bytes"`
	DeductAmount  int64  `json:"deduct_amount"`
	Reason        string `json:"reason"`
	FullRefund    bool   `json:"full_refund"`
}

type UpgradeRequest struct {
	EntitlementID uint `json:"entitlement_id" binding:"required"`
	PlanID        uint `json:"plan_id" binding:"required"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	asAdmin := middleware.IsAdmin(c)
	userID := middleware.UserID(c)
	if asAdmin && req.UserID != 0 {
		userID = req.UserID
	}

	result, err := h.createOrderUC.Execute(c.Request.Context(), usecases.CreateOrderCommand{
		UserID:  userID,
		PlanID:  req.PlanID,
		Remark:  req.Remark,
		AsAdmin: asAdmin,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, result)
}

func (h *OrderHandler) Pay(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.payOrderUC.Execute(c.Request.Context(), usecases.PayOrderCommand{
		OrderID:   orderID,
		UserID:    middleware.UserID(c),
		PayMethod: req.PayMethod,
		AsAdmin:   middleware.IsAdmin(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "order paid", result)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.cancelOrderUC.Execute(c.Request.Context(), usecases.CancelOrderCommand{
		OrderID: orderID,
		UserID:  middleware.UserID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "order cancelled", result)
}

func (h *OrderHandler) ForceCancel(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.forceCancelUC.Execute(c.Request.Context(), usecases.ForceCancelOrderCommand{
		OrderID: orderID,
		Remark:  c.Query("remark"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "order cancelled", result)
}

func (h *OrderHandler) List(c *gin.Context) {
	pagination := utils.ParsePagination(c)
	result, err := h.listOrdersUC.Execute(c.Request.Context(), usecases.ListOrdersCommand{
		UserID:     middleware.UserID(c),
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		Pagination: pagination,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, result.Orders, result.Total, pagination.Page, pagination.PageSize)
}

// ListAll is the admin variant; user_id is an optional filter.
func (h *OrderHandler) ListAll(c *gin.Context) {
	pagination := utils.ParsePagination(c)
	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		parsed, ok := parseQueryID(c, raw)
		if !ok {
			return
		}
		userID = parsed
	}

	result, err := h.listOrdersUC.Execute(c.Request.Context(), usecases.ListOrdersCommand{
		UserID:     userID,
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		Pagination: pagination,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, result.Orders, result.Total, pagination.Page, pagination.PageSize)
}

func (h *OrderHandler) ActiveEntitlements(c *gin.Context) {
	result, err := h.entitlementsUC.Execute(c.Request.Context(), usecases.GetActiveEntitlementsCommand{
		UserID: middleware.UserID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result.Entitlements)
}

func (h *OrderHandler) Remaining(c *gin.Context) {
	entitlementID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.remainingUC.Execute(c.Request.Context(), usecases.GetRemainingCommand{
		UserID:        middleware.UserID(c),
		EntitlementID: entitlementID,
		AsAdmin:       middleware.IsAdmin(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *OrderHandler) Unsubscribe(c *gin.Context) {
	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.unsubscribeUC.Execute(c.Request.Context(), usecases.UnsubscribeCommand{
		UserID:        middleware.UserID(c),
		EntitlementID: req.EntitlementID,
		DeductDays:    req.DeductDays,
		DeductBytes:   req.DeductBytes,
		DeductAmount:  req.DeductAmount,
		Reason:        req.Reason,
		FullRefund:    req.FullRefund,
		AsAdmin:       middleware.IsAdmin(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "unsubscribed", result)
}

func (h *OrderHandler) UpgradePreview(c *gin.Context) {
	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.upgradePreviewUC.Execute(c.Request.Context(), usecases.UpgradePreviewCommand{
		UserID:        middleware.UserID(c),
		EntitlementID: req.EntitlementID,
		PlanID:        req.PlanID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *OrderHandler) UpgradeConfirm(c *gin.Context) {
	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.upgradeConfirmUC.Execute(c.Request.Context(), usecases.UpgradeConfirmCommand{
		UserID:        middleware.UserID(c),
		EntitlementID: req.EntitlementID,
		PlanID:        req.PlanID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, result)
}
