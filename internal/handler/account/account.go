package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"accounthub/internal/api"
	"accounthub/internal/cache"
	"accounthub/internal/database"
	"accounthub/internal/middleware"
	"accounthub/internal/model"
	"accounthub/internal/service"
	"accounthub/internal/store"
	"accounthub/internal/worker"

	"github.com/labstack/echo/v4"
)

var (
	hashPassword = service.HashPassword
	getUserByID  = store.GetUserByID
	updateUser   = store.UpdateUser
	deleteUser   = store.DeleteUser
)

// profileTTL 是個人資料快取的存活時間
const profileTTL = 5 * time.Minute

func profileKey(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// toAPIUser 轉為對外資料，密碼哈希不會出現在任何回應或快取中
func toAPIUser(u *model.User) api.User {
	return api.User{
		ID:        u.ID,
		Name:      u.Name,
		Gender:    u.Gender,
		Dob:       u.DateOfBirth.Format("2006-01-02"),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func claimsFrom(c echo.Context) (*service.CustomClaims, bool) {
	claims, ok := c.Get(middleware.ContextUserKey).(*service.CustomClaims)
	if !ok || claims.UserID == 0 {
		return nil, false
	}
	return claims, true
}

// @Summary     Get current account
// @Description 透過 JWT Token 取得當前使用者詳細資訊
// @Tags        account
// @Produce     json
// @Success     200 {object} api.UserResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /me [get]
func GetMyAccountHandler(db database.DB, cch cache.Cache, wp worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := claimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}

		key := profileKey(claims.UserID)
		if raw, err := cch.Get(c.Request().Context(), key).Result(); err == nil {
			var u api.User
			if err := json.Unmarshal([]byte(raw), &u); err == nil {
				return c.JSON(http.StatusOK, api.UserResponse{User: u})
			}
		}

		user, err := getUserByID(c.Request().Context(), db, claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
			}
			c.Logger().Errorf("get account: %v", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}

		u := toAPIUser(user)
		// 快取回填交給背景 worker，失敗不影響回應
		wp.Submit(func() {
			if b, err := json.Marshal(u); err == nil {
				cch.Set(context.Background(), key, b, profileTTL)
			}
		})

		return c.JSON(http.StatusOK, api.UserResponse{User: u})
	}
}

// @Summary     Update current account
// @Description 只更新帶值的欄位；密碼僅在非空白時重新哈希
// @Tags        account
// @Accept      json
// @Produce     json
// @Param       payload body api.UpdateAccountRequest true "更新資料"
// @Success     200 {object} api.UpdateAccountResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /useraccount [put]
func UpdateMyAccountHandler(db database.DB, cch cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.UpdateAccountRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request data"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: service.ValidationMessage(err)})
		}

		claims, ok := claimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}

		user, err := getUserByID(c.Request().Context(), db, claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
			}
			c.Logger().Errorf("update account: load failed: %v", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}

		if req.Name != "" {
			user.Name = req.Name
		}
		if req.Gender != "" {
			user.Gender = req.Gender
		}
		if req.Dob != "" {
			dob, err := service.ParseBirthDate(req.Dob)
			if err != nil {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
			}
			user.DateOfBirth = dob
		}
		if req.Email != "" {
			email := strings.ToLower(req.Email)
			if _, err := mail.ParseAddress(email); err != nil {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Invalid email format"})
			}
			user.Email = email
		}

		// 密碼只有在帶非空白值時才重新哈希，
		// 和其他欄位在同一個 UPDATE 寫入，失敗時不留部分狀態
		if strings.TrimSpace(req.Password) != "" {
			hash, err := hashPassword(req.Password)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to hash password"})
			}
			user.PasswordHash = hash
		}

		if err := updateUser(c.Request().Context(), db, user); err != nil {
			switch {
			case errors.Is(err, store.ErrUserNotFound):
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
			case errors.Is(err, store.ErrEmailTaken):
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "User already exists"})
			default:
				c.Logger().Errorf("update account: %v", err)
				return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
			}
		}

		cch.Del(c.Request().Context(), profileKey(user.ID))

		return c.JSON(http.StatusOK, api.UpdateAccountResponse{
			Message: "Account updated successfully",
			User:    toAPIUser(user),
		})
	}
}

// @Summary     Delete current account
// @Description 使用 JWT Token 刪除當前使用者帳號
// @Tags        account
// @Produce     json
// @Success     200 {object} api.MessageResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /useraccount [delete]
func DeleteMyAccountHandler(db database.DB, cch cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := claimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}

		if err := deleteUser(c.Request().Context(), db, claims.UserID); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
			}
			c.Logger().Errorf("delete account: %v", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}

		cch.Del(c.Request().Context(), profileKey(claims.UserID))

		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Account deleted successfully"})
	}
}
