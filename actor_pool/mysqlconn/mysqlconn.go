package mysqlconn

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/keenzhang/pool/actor_pool/config"
	"github.com/keenzhang/pool/actor_pool/pool"
)

// NewOptions builds pool Options for a MySQL backend. Each wrapper gets its
// own sql.DB capped at a single underlying connection, so one pool slot
// maps to one server session.
func NewOptions(dsn string, minSize int) *pool.Options {
	return &pool.Options{
		MinSize: minSize,
		Factory: func() (interface{}, error) {
			db, err := sql.Open("mysql", dsn)
			if err != nil {
				return nil, err
			}
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(0)
			return db, nil
		},
		Close: func(v interface{}) error {
			return v.(*sql.DB).Close()
		},
		Ping: func(v interface{}) error {
			return v.(*sql.DB).Ping()
		},
		Reset: func(v interface{}) error {
			// drop any transaction the caller left open
			_, err := v.(*sql.DB).Exec("ROLLBACK")
			return err
		},
		Exec: func(v interface{}, stmt string) error {
			_, err := v.(*sql.DB).Exec(stmt)
			return err
		},
	}
}

// FromConfig adapts a configured pool section. The signature matches what
// config.Bootstrap expects.
func FromConfig(name string, ps config.PoolSettings) (*pool.Options, error) {
	opts := NewOptions(ps.Backend.DSN, ps.MinSize)
	opts.MaxSize = ps.MaxSize
	opts.WaitTimeout = ps.WaitTimeout()
	opts.RetryInterval = ps.RetryInterval()
	return opts, nil
}
