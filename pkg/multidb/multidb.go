package multidb

import (
	"io"

	"github.com/jmoiron/sqlx"
)

// MultiDB holds every configured SQL connection, keyed by the label used
// in the config file. Repositories pick their connection by label.
type MultiDB interface {
	GetSqlx(driver Driver, key string) (*sqlx.DB, error)
	io.Closer
}
