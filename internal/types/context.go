package types

type contextKey string

// UserIDKey holds the authenticated model.Identity in a request context.
const UserIDKey contextKey = "user_id"
