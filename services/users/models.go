package users

import "time"

//go:generate reform

//reform:users
type User struct {
	UserID       string    `reform:"user_id,pk"`
	Username     string    `reform:"username"`
	FirstName    string    `reform:"first_name"`
	LastName     string    `reform:"last_name"`
	PasswordHash string    `reform:"password_hash"`
	CreatedAt    time.Time `reform:"created_at"`
}
