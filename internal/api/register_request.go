package api

// swagger:model api.RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=3" example:"Alice Smith"`
	Gender   string `json:"gender" form:"gender" validate:"required,oneof=male female other" example:"female"`
	Dob      string `json:"dob" form:"dob" validate:"required,datetime=2006-01-02" example:"1990-01-01"`
	Email    string `json:"email" form:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" form:"password" validate:"required" example:"Str0ng!Pass"`
}
