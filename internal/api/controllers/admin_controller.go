package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"keyshop/internal/models/request_models"
	"keyshop/internal/services"
	"keyshop/pkg/utils"
)

// AdminController gathers the operator surface: refunds, key imports,
// revocation, stuck-order tooling and alert-cooldown overrides. All routes
// sit behind JWT auth with the admin role.
type AdminController struct {
	orderService     services.OrderService
	refundService    services.RefundService
	keyService       services.LicenseKeyService
	inventoryService services.InventoryService
}

func NewAdminController(
	orderService services.OrderService,
	refundService services.RefundService,
	keyService services.LicenseKeyService,
	inventoryService services.InventoryService,
) *AdminController {
	return &AdminController{
		orderService:     orderService,
		refundService:    refundService,
		keyService:       keyService,
		inventoryService: inventoryService,
	}
}

// RefundOrder godoc
// @Summary Refund a paid or completed order and release its keys
// @Tags Admin
// @Accept json
// @Produce json
// @Param orderNo path string true "Order number"
// @Param request body request_models.RefundOrderRequest true "Refund Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/orders/{orderNo}/refund [post]
func (a *AdminController) RefundOrder(c *gin.Context) {
	var request request_models.RefundOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := a.refundService.Refund(c.Request.Context(), c.Param("orderNo"), request.Amount, request.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Order refunded")
}

// CancelOrder godoc
// @Summary Cancel a stuck pending order
// @Tags Admin
// @Accept json
// @Produce json
// @Param orderNo path string true "Order number"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/orders/{orderNo}/cancel [post]
func (a *AdminController) CancelOrder(c *gin.Context) {
	var request request_models.CancelOrderRequest
	_ = c.ShouldBindJSON(&request)

	if err := a.orderService.CancelOrder(c.Request.Context(), c.Param("orderNo"), request.Reason); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Order cancelled")
}

// ListStuckOrders godoc
// @Summary Pending orders older than the configured age
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/orders/stuck [get]
func (a *AdminController) ListStuckOrders(c *gin.Context) {
	resp, err := a.orderService.ListStuck(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "")
}

// DeliverKeys godoc
// @Summary Decrypt and return the keys of a completed order
// @Tags Admin
// @Produce json
// @Param orderNo path string true "Order number"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/orders/{orderNo}/keys [get]
func (a *AdminController) DeliverKeys(c *gin.Context) {
	resp, err := a.keyService.DeliverKeys(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "")
}

// ImportKeys godoc
// @Summary Bulk import plaintext license keys for a product
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Product id"
// @Param request body request_models.ImportKeysRequest true "Import Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/products/{id}/keys [post]
func (a *AdminController) ImportKeys(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	var request request_models.ImportKeysRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := a.keyService.ImportKeys(c.Request.Context(), productID, request.Keys)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Keys imported")
}

// RevokeKey godoc
// @Summary Revoke a sold key
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Key id"
// @Param request body request_models.RevokeKeyRequest true "Revoke Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/keys/{id}/revoke [post]
func (a *AdminController) RevokeKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid key id")
		return
	}

	var request request_models.RevokeKeyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.keyService.RevokeKey(c.Request.Context(), keyID, request.Reason); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Key revoked")
}

// ResetAlertCooldown godoc
// @Summary Clear the low-stock alert cooldown for a product
// @Tags Admin
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/products/{id}/alert/reset [post]
func (a *AdminController) ResetAlertCooldown(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := a.inventoryService.ResetCooldown(c.Request.Context(), productID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Cooldown reset")
}

// ForceStockRecheck godoc
// @Summary Re-run the low-stock check for a product, bypassing cooldown
// @Tags Admin
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/products/{id}/alert/recheck [post]
func (a *AdminController) ForceStockRecheck(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := a.inventoryService.ForceRecheck(c.Request.Context(), productID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Recheck completed")
}
