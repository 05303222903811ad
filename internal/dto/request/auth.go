package request

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Role        string `json:"role" validate:"required,oneof=CLIENT DIVINER"`
	Nickname    string `json:"nickname,omitempty" validate:"required_if=Role CLIENT,max=50"`
	DisplayName string `json:"display_name,omitempty" validate:"required_if=Role DIVINER,max=100"`
	Bio         string `json:"bio,omitempty" validate:"max=2000"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
