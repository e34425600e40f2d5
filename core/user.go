package core

type (
	// User is an authenticated account as derived from the OAuth/OIDC
	// provider; Subject is the stable identifier compositions are keyed by.
	User struct {
		Subject   string `json:"subject"`
		Login     string `json:"login"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatarUrl"`
		Name      string `json:"name"`
	}
)
