package factory

import (
	"fmt"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/db/bolt"
	"github.com/devboardui/devboard/db/sql"
	"github.com/devboardui/devboard/util"
)

// CreateStore instantiates the store backend selected by the configuration.
// The returned store is not connected yet.
func CreateStore(config util.DbConfig) (db.Store, error) {
	switch config.Dialect {
	case util.DbDialectBolt:
		return bolt.NewBoltDb(config.Hostname), nil
	case util.DbDialectPostgres, util.DbDialectMySQL, util.DbDialectSQLite:
		return sql.NewSqlDb(config), nil
	default:
		return nil, fmt.Errorf("unknown db dialect: %s", config.Dialect)
	}
}
