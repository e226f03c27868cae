package dto

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,max=72"`
	CompanyName string `json:"companyName" validate:"max=200"`
	Industry    string `json:"industry" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName,omitempty"`
	Industry    string `json:"industry,omitempty"`
}

type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

type AuthStatusResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}
