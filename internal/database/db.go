package database

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// New connects to postgres and brings the schema up to date.
func New(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
