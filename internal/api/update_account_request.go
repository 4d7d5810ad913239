package api

// 所有欄位皆可省略，只有帶值的欄位會被更新
// swagger:model api.UpdateAccountRequest
type UpdateAccountRequest struct {
	Name     string `json:"name" form:"name" validate:"omitempty,min=3" example:"Alice Smith"`
	Gender   string `json:"gender" form:"gender" validate:"omitempty,oneof=male female other" example:"female"`
	Dob      string `json:"dob" form:"dob" validate:"omitempty,datetime=2006-01-02" example:"1990-01-01"`
	Email    string `json:"email" form:"email" validate:"omitempty,email" example:"alice@example.com"`
	Password string `json:"password" form:"password" validate:"omitempty" example:"N3w!Secret"`
}
