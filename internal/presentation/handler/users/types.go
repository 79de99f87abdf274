package users

type createUserRequest struct {
	Name string `json:"name"`
}

type createUserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type userResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
