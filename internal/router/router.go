package router

import (
	"finbook/internal/budget"
	"finbook/internal/config"
	"finbook/internal/handler"
	"finbook/internal/ledger"
	"finbook/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the API routes. The engines
// are built in main and injected; the router never constructs storage
// or notification dependencies itself.
func SetupRouter(cfg *config.Config, db *gorm.DB, ledgerEngine *ledger.Engine, budgetEngine *budget.Engine) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/me", handler.GetMe)

	transferHandler := handler.NewTransferHandler(ledgerEngine)
	protected.POST("/transfers", transferHandler.CreateTransfer)
	protected.GET("/transfers", transferHandler.ListTransfers)
	protected.PUT("/transfers/:id", transferHandler.UpdateTransfer)
	protected.DELETE("/transfers/:id", transferHandler.DeleteTransfer)
	protected.GET("/transfers/stats", transferHandler.GetTransferStats)

	protected.GET("/reconciliation/transfers", transferHandler.GetReconciliation)
	protected.POST("/reconciliation/transfers", transferHandler.RunReconciliation)
	protected.POST("/reconciliation/transfers/:transfer_id/repair", transferHandler.RepairTransfer)

	budgetHandler := handler.NewBudgetHandler(db, budgetEngine)
	protected.POST("/budgets", budgetHandler.CreateBudget)
	protected.GET("/budgets", budgetHandler.ListBudgets)
	protected.GET("/budgets/:id/status", budgetHandler.GetBudgetStatus)
	protected.POST("/budgets/:id/recompute", budgetHandler.RecomputeBudget)
	protected.GET("/reconciliation/budgets", budgetHandler.GetBudgetDrift)

	protected.POST("/expenses", budgetHandler.CreateExpense)
	protected.GET("/expenses", budgetHandler.ListExpenses)
	protected.PUT("/expenses/:id", budgetHandler.UpdateExpense)
	protected.DELETE("/expenses/:id", budgetHandler.DeleteExpense)

	exportHandler := handler.NewExportHandler(ledgerEngine)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	return r
}
