package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaking/internal/db"
)

// Repositories bundles every repository bound to the same connection or
// transaction.
type Repositories struct {
	Users   *UserRepository
	Actions *ActionRepository
	Matches *MatchRepository
}

// New binds all repositories to database (which may itself be a transaction).
func New(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:   NewUserRepository(database),
		Actions: NewActionRepository(database),
		Matches: NewMatchRepository(database),
	}
}

// InTx runs fn inside a single transaction. Returning an error from fn
// rolls everything back.
func InTx(ctx context.Context, database *gorm.DB, fn func(r *Repositories) error) error {
	run := func(tx *gorm.DB) error { return fn(New(tx)) }

	if opts := db.TxOptions(database); opts != nil {
		return database.WithContext(ctx).Transaction(run, opts)
	}
	return database.WithContext(ctx).Transaction(run)
}
