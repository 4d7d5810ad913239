package auth

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"accounthub/internal/api"
	"accounthub/internal/database"
	"accounthub/internal/model"
	"accounthub/internal/service"
	"accounthub/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	hashPassword     = service.HashPassword
	authenticateUser = service.AuthenticateUser
	issueAccessToken = service.IssueAccessToken
	createUser       = store.CreateUser
	getUserByEmail   = store.GetUserByEmail
)

// @Summary     Register a new account
// @Description 驗證註冊資料並建立新帳號 (Email 會自動轉小寫)
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       payload body api.RegisterRequest true "註冊資料"
// @Success     201 {object} api.RegisterResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /register [post]
func RegisterHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.RegisterRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request data"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: service.ValidationMessage(err)})
		}
		if err := service.ValidatePasswordStrength(req.Password); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		req.Email = strings.ToLower(req.Email)
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Invalid email format"})
		}

		dob, err := service.ParseBirthDate(req.Dob)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		// 先查重；併發下的漏網由唯一索引 (ErrEmailTaken) 接手
		if _, err := getUserByEmail(c.Request().Context(), db, req.Email); err == nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "User already exists"})
		} else if !errors.Is(err, store.ErrUserNotFound) {
			c.Logger().Errorf("register: duplicate check failed: %v", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to hash password"})
		}

		user, err := createUser(c.Request().Context(), db, &model.User{
			Name:         req.Name,
			Gender:       req.Gender,
			DateOfBirth:  dob,
			Email:        req.Email,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "User already exists"})
			}
			c.Logger().Errorf("register: create failed: %v", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}

		return c.JSON(http.StatusCreated, api.RegisterResponse{
			Message: "User registered successfully",
			UserID:  user.ID,
		})
	}
}
