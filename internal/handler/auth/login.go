// File: internal/handler/auth/login.go
package auth

import (
	"net/http"
	"strings"

	"accounthub/internal/api"
	"accounthub/internal/database"
	"accounthub/internal/service"

	"github.com/labstack/echo/v4"
)

// @Summary     Log in
// @Description 使用 Email 與 Password 進行驗證，回傳存取令牌
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       payload body api.LoginRequest true "登入資料"
// @Success     200 {object} api.LoginResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /login [post]
func LoginHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request data"})
		}
		// 登入不檢查密碼強度，歷史密碼必須仍可登入
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: service.ValidationMessage(err)})
		}

		req.Email = strings.ToLower(req.Email)

		// 查無使用者與密碼錯誤，對外回應一致
		user, err := getUserByEmail(c.Request().Context(), db, req.Email)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Invalid credentials"})
		}
		if err := authenticateUser(c.Request().Context(), *user, req.Password); err != nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Invalid credentials"})
		}

		token, err := issueAccessToken(*user, service.AccessTokenTTL)
		if err != nil {
			c.Logger().Errorf("login: issue token failed: %v", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}

		return c.JSON(http.StatusOK, api.LoginResponse{Token: token})
	}
}
