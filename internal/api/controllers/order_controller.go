package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keyshop/internal/models/request_models"
	"keyshop/internal/services"
	"keyshop/pkg/utils"
)

type OrderController struct {
	orderService services.OrderService
	keyService   services.LicenseKeyService
}

func NewOrderController(orderService services.OrderService, keyService services.LicenseKeyService) *OrderController {
	return &OrderController{
		orderService: orderService,
		keyService:   keyService,
	}
}

// CreateOrder godoc
// @Summary Create an order for a product and open a payment session
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body request_models.CreateOrderRequest true "Create Order Request"
// @Success 200 {object} utils.APIResponse
// @Router /orders [post]
func (o *OrderController) CreateOrder(c *gin.Context) {

	var request request_models.CreateOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := o.orderService.CreateOrder(c.Request.Context(), request, c.ClientIP())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Order created, complete payment to receive your keys")
}

// GetOrder godoc
// @Summary Look up an order by its order number
// @Tags Orders
// @Produce json
// @Param orderNo path string true "Order number"
// @Success 200 {object} utils.APIResponse
// @Router /orders/{orderNo} [get]
func (o *OrderController) GetOrder(c *gin.Context) {
	orderNo := c.Param("orderNo")
	if orderNo == "" {
		utils.RespondError(c, http.StatusBadRequest, "orderNo is required")
		return
	}

	resp, err := o.orderService.GetOrder(c.Request.Context(), orderNo)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "")
}

// GetStock godoc
// @Summary Available stock for a product
// @Tags Products
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} utils.APIResponse
// @Router /products/{slug}/stock [get]
func (o *OrderController) GetStock(c *gin.Context) {
	slug := c.Param("slug")

	resp, err := o.keyService.Stock(c.Request.Context(), slug)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "")
}
