package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meridian/internal/application/setting/usecases"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

type SettingHandler struct {
	internalKeyUC *usecases.InternalKeyUseCase
	logger        logger.Interface
}

func NewSettingHandler(internalKeyUC *usecases.InternalKeyUseCase, logger logger.Interface) *SettingHandler {
	return &SettingHandler{internalKeyUC: internalKeyUC, logger: logger}
}

type UpdateInternalKeyRequest struct {
	Key      string `json:"key"`
	Generate bool   `json:"generate"`
}

func (h *SettingHandler) GetInternalKey(c *gin.Context) {
	result, err := h.internalKeyUC.Get(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"key": result.Key})
}

func (h *SettingHandler) UpdateInternalKey(c *gin.Context) {
	var req UpdateInternalKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.internalKeyUC.Update(c.Request.Context(), usecases.UpdateInternalKeyCommand{
		Key:      req.Key,
		Generate: req.Generate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "internal key updated", gin.H{"key": result.Key})
}
