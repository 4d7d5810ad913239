package api

// swagger:model api.RegisterResponse
type RegisterResponse struct {
	Message string `json:"message" example:"User registered successfully"`
	UserID  int    `json:"userId" example:"1"`
}
