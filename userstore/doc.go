// Package userstore provides authkeep.UserStore implementations: an in-memory store
// for tests and development, and a PostgreSQL store on GORM.
//
// Both hash passwords with Argon2id on write and return authkeep.ErrUserNotFound and
// authkeep.ErrDuplicateUser as the engine expects.
package userstore
