package core

type (
	// User is the admin account returned by the remote API on login.
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)
