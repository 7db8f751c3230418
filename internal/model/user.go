package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Passwords are kept as bcrypt hashes; handlers never see the
// plain text after login.  The booking core never reads this table –
// it only consumes the numeric user id the JWT middleware places in
// the request context.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Name         – display name.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Name         string    // users.name
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
