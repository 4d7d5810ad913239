package api

// swagger:model api.MessageResponse
type MessageResponse struct {
	Message string `json:"message" example:"Account deleted successfully"`
}

// swagger:model api.UpdateAccountResponse
type UpdateAccountResponse struct {
	Message string `json:"message" example:"Account updated successfully"`
	User    User   `json:"user"`
}
