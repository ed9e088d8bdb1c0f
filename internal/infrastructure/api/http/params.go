package http

const (
	UserIDParam = "userID"
	TxIDParam   = "txID"
)

// AdminTokenHeader authenticates the admin surface; a static token only, no
// further auth is in scope.
const AdminTokenHeader = "X-Admin-Token"

// Optional identity headers the front-end may pass along for lazy user creation.
const (
	UsernameHeader  = "X-Username"
	FirstNameHeader = "X-First-Name"
)
