package user

import "time"

type User struct {
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Users []User `json:"users"`
	Token string `json:"token"`
}
