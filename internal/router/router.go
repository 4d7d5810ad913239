// File: internal/router/router.go
package router

import (
	"github.com/labstack/echo/v4"

	"accounthub/internal/cache"
	"accounthub/internal/database"
	"accounthub/internal/handler"
	"accounthub/internal/handler/account"
	"accounthub/internal/handler/auth"
	"accounthub/internal/middleware"
	"accounthub/internal/worker"
)

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, db database.DB, rdb cache.Cache, wp worker.Pool) {
	api := e.Group("/api")

	// 健康檢查（需登入）
	api.GET("/ping", handler.PingHandler(db, rdb), middleware.RequireAuth)

	// 註冊與登入
	api.POST("/register", auth.RegisterHandler(db))
	api.POST("/login", auth.LoginHandler(db))

	// 當前使用者帳號；/useraccount GET 是保留的舊路徑，行為與 /me 相同
	api.GET("/me", account.GetMyAccountHandler(db, rdb, wp), middleware.RequireAuth)
	api.GET("/useraccount", account.GetMyAccountHandler(db, rdb, wp), middleware.RequireAuth)
	api.PUT("/useraccount", account.UpdateMyAccountHandler(db, rdb), middleware.RequireAuth)
	api.DELETE("/useraccount", account.DeleteMyAccountHandler(db, rdb), middleware.RequireAuth)
}
