// internal/interfaces/http/handlers/transactions.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/ledger"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/domain/transaction"
	"github.com/your-org/distribution-backend/internal/interfaces/http/middleware"
	"github.com/your-org/distribution-backend/internal/pkg/lock"
	"gorm.io/gorm"
)

// TransactionHandler handles stock transaction endpoints
type TransactionHandler struct {
	transactionService *transaction.Service
	config             *config.Config
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *TransactionHandler {
	locker := lock.NewLocker(redisClient, cfg.Security.LockTTL)
	seq := sequence.NewService(locker)
	ledgerSvc := ledger.NewService(db, seq)
	pricingSvc := pricing.NewService(db)
	return &TransactionHandler{
		transactionService: transaction.NewService(db, cfg, locker, seq, ledgerSvc, pricingSvc),
		config:             cfg,
	}
}

// RecordIncoming handles POST /transactions/incoming
func (h *TransactionHandler) RecordIncoming(c *gin.Context) {
	var req transaction.RecordIncomingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	txn, err := h.transactionService.RecordIncoming(c.Request.Context(), accountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Incoming transaction recorded successfully",
		"data":    txn,
	})
}

// RecordOutgoing handles POST /transactions/outgoing
func (h *TransactionHandler) RecordOutgoing(c *gin.Context) {
	var req transaction.RecordOutgoingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	allowedTiers := middleware.GetAllowedTiersFromContext(c)
	txn, err := h.transactionService.RecordOutgoing(c.Request.Context(), accountID, allowedTiers, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Outgoing transaction recorded successfully",
		"data":    txn,
	})
}

// RecordAdjustment handles POST /transactions/adjustment
func (h *TransactionHandler) RecordAdjustment(c *gin.Context) {
	var req transaction.RecordAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	txn, err := h.transactionService.RecordAdjustment(c.Request.Context(), accountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Adjustment recorded successfully",
		"data":    txn,
	})
}

// GetTransactions handles GET /transactions?type=
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	txnType := transaction.Type(c.Query("type"))
	switch txnType {
	case "", transaction.TypeIncoming, transaction.TypeOutgoing, transaction.TypeAdjustment:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
		return
	}

	txns, err := h.transactionService.GetTransactions(txnType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve transactions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transactions retrieved successfully",
		"data":    txns,
	})
}

// GetTransaction handles GET /transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactionService.GetTransaction(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction retrieved successfully",
		"data": gin.H{
			"transaction":  txn,
			"is_completed": txn.IsCompleted(),
		},
	})
}

// UpdateCompletionFlags handles PATCH /transactions/:id/flags
func (h *TransactionHandler) UpdateCompletionFlags(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req transaction.CompletionFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	txn, err := h.transactionService.SetCompletionFlags(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Completion flags updated successfully",
		"data": gin.H{
			"transaction":  txn,
			"is_completed": txn.IsCompleted(),
		},
	})
}
