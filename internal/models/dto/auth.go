package dto

import "github.com/hongminglow/cinevault-be/internal/models"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

type MeResponse struct {
	User models.PublicUser `json:"user"`
}
