package api

import "time"

// User 是對外的使用者資料，絕不包含密碼哈希
// swagger:model api.User
type User struct {
	ID        int       `json:"id" example:"1"`
	Name      string    `json:"name" example:"Alice Smith"`
	Gender    string    `json:"gender" example:"female"`
	Dob       string    `json:"dob" example:"1990-01-01"`
	Email     string    `json:"email" example:"alice@example.com"`
	CreatedAt time.Time `json:"created_at" example:"2025-05-01T15:04:05Z"`
}

// swagger:model api.UserResponse
type UserResponse struct {
	User User `json:"user"`
}
