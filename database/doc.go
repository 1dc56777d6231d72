// Package database opens the PostgreSQL connection pool.
//
// The password is never part of configuration. Open resolves it through a
// secret.Getter first and refuses to touch the network when it is not
// configured. The pool is database/sql over pgx, wrapped in gorm.
package database
