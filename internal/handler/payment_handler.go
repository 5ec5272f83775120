package handler

import (
	"net/http"
	"strconv"

	"escrowpay/internal/middleware"
	"escrowpay/internal/models"
	"escrowpay/internal/service"
	"escrowpay/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	validate       *validator.Validate
	log            *zap.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validator.New(),
		log:            log,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	payments := router.Group("/api/v1/payments", auth)
	payments.POST("/process", h.handleProcessPayment)
	payments.GET("", h.handleListTransactions)
	payments.GET("/:id", h.handleGetTransaction)
	payments.POST("/:id/refund", h.handleRequestRefund)
	payments.POST("/:id/release", h.handleReleaseEscrow)
}

type processPaymentRequest struct {
	Amount            decimal.Decimal        `json:"amount"`
	Currency          string                 `json:"currency"`
	Method            string                 `json:"method" validate:"required"`
	PaymentType       string                 `json:"paymentType" validate:"required"`
	RelatedID         string                 `json:"relatedId" validate:"required"`
	UseEscrow         bool                   `json:"useEscrow"`
	SellerID          string                 `json:"sellerId"`
	ReleaseConditions string                 `json:"releaseConditions"`
	ContractDetails   map[string]interface{} `json:"contractDetails"`
}

func (h *PaymentHandler) handleProcessPayment(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		h.sendError(c, apperr.Unauthorized("authentication required"))
		return
	}

	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, apperr.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.sendError(c, apperr.Validation("missing required fields"))
		return
	}

	result, err := h.paymentService.ProcessPayment(c.Request.Context(), callerID, service.ProcessPaymentParams{
		Amount:            req.Amount,
		Currency:          req.Currency,
		Method:            models.PaymentMethod(req.Method),
		PaymentType:       models.RelatedType(req.PaymentType),
		RelatedID:         req.RelatedID,
		UseEscrow:         req.UseEscrow,
		SellerID:          req.SellerID,
		ReleaseConditions: req.ReleaseConditions,
		ContractDetails:   req.ContractDetails,
	})
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"paymentId":  result.PaymentID,
		"receiptUrl": result.ReceiptURL,
	})
}

func (h *PaymentHandler) handleRequestRefund(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		h.sendError(c, apperr.Unauthorized("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.sendError(c, apperr.Validation("invalid transaction id"))
		return
	}

	if err := h.paymentService.RequestRefund(c.Request.Context(), callerID, id); err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PaymentHandler) handleReleaseEscrow(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		h.sendError(c, apperr.Unauthorized("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.sendError(c, apperr.Validation("invalid transaction id"))
		return
	}

	if err := h.paymentService.ReleaseEscrow(c.Request.Context(), callerID, id); err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PaymentHandler) handleGetTransaction(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		h.sendError(c, apperr.Unauthorized("authentication required"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.sendError(c, apperr.Validation("invalid transaction id"))
		return
	}

	transaction, err := h.paymentService.GetTransaction(c.Request.Context(), callerID, id)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": transaction})
}

func (h *PaymentHandler) handleListTransactions(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		h.sendError(c, apperr.Unauthorized("authentication required"))
		return
	}

	params := service.ListParams{}
	if v := c.Query("type"); v != "" {
		rt := models.RelatedType(v)
		if !rt.Valid() {
			h.sendError(c, apperr.Validation("unsupported payment type filter"))
			return
		}
		params.RelatedType = &rt
	}
	if c.Query("escrow_only") == "true" {
		params.EscrowOnly = true
	}
	if v := c.Query("limit"); v != "" {
		limit, err := parseLimit(v)
		if err != nil {
			h.sendError(c, err)
			return
		}
		params.Limit = limit
	}

	transactions, err := h.paymentService.ListTransactions(c.Request.Context(), callerID, params)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transactions": transactions})
}

func (h *PaymentHandler) sendError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindProcessing || kind == apperr.KindPartialFailure {
		h.log.Error("operation failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	c.JSON(statusForKind(kind), gin.H{
		"success": false,
		"error":   apperr.MessageOf(err),
		"code":    string(kind),
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPrecondition:
		return http.StatusConflict
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func parseLimit(v string) (int, error) {
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 || limit > 1000 {
		return 0, apperr.Validation("invalid limit")
	}
	return limit, nil
}
