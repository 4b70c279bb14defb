package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Lastname *string `json:"lastname"`
}

type UpdateUserRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Lastname *string `json:"lastname"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
