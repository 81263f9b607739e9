package domain

// Roles carried in upstream-issued JWTs. Admin gates the broadcast and
// system surfaces; everything else only needs an authenticated user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
