package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/util"
	"github.com/go-gorp/gorp/v3"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SqlDb is the SQL durable store backend. It supports PostgreSQL, MySQL
// and SQLite behind the same query set; queries are written with MySQL
// placeholders and rewritten by PrepareQuery for other dialects.
type SqlDb struct {
	Dialect  util.DbDialect
	Hostname string
	Username string
	Password string
	DbName   string

	sql *gorp.DbMap
}

func NewSqlDb(config util.DbConfig) *SqlDb {
	return &SqlDb{
		Dialect:  config.Dialect,
		Hostname: config.Hostname,
		Username: config.Username,
		Password: config.Password,
		DbName:   config.DbName,
	}
}

func (d *SqlDb) Connect() error {
	var driver, dsn string
	var dialect gorp.Dialect

	switch d.Dialect {
	case util.DbDialectPostgres:
		driver = "postgres"
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			d.Hostname, d.Username, d.Password, d.DbName)
		dialect = gorp.PostgresDialect{}
	case util.DbDialectMySQL:
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
			d.Username, d.Password, d.Hostname, d.DbName)
		dialect = gorp.MySQLDialect{Engine: "InnoDB", Encoding: "UTF8"}
	case util.DbDialectSQLite:
		driver = "sqlite"
		dsn = d.Hostname
		dialect = gorp.SqliteDialect{}
	default:
		return fmt.Errorf("unsupported sql dialect: %s", d.Dialect)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}

	if err = conn.Ping(); err != nil {
		return err
	}

	d.sql = &gorp.DbMap{Db: conn, Dialect: dialect}

	return d.migrate()
}

func (d *SqlDb) Close() error {
	if d.sql == nil {
		return nil
	}
	return d.sql.Db.Close()
}

func (d *SqlDb) Sql() *gorp.DbMap {
	return d.sql
}

// PrepareQuery rewrites a MySQL-style query for the active dialect:
// PostgreSQL gets numbered placeholders and loses identifier backticks,
// SQLite only loses the backticks.
func (d *SqlDb) PrepareQuery(query string) string {
	switch d.Dialect {
	case util.DbDialectPostgres:
		var sb strings.Builder
		n := 0
		for _, c := range query {
			switch c {
			case '?':
				n++
				sb.WriteString(fmt.Sprintf("$%d", n))
			case '`':
				sb.WriteRune('"')
			default:
				sb.WriteRune(c)
			}
		}
		return sb.String()
	case util.DbDialectSQLite:
		return strings.ReplaceAll(query, "`", "\"")
	default:
		return query
	}
}

func (d *SqlDb) exec(query string, args ...any) (sql.Result, error) {
	return d.sql.Exec(d.PrepareQuery(query), args...)
}

func (d *SqlDb) selectOne(holder any, query string, args ...any) error {
	err := d.sql.SelectOne(holder, d.PrepareQuery(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return db.ErrNotFound
	}
	return err
}

func (d *SqlDb) selectAll(holder any, query string, args ...any) error {
	_, err := d.sql.Select(holder, d.PrepareQuery(query), args...)
	return err
}

// insert runs an insert statement and returns the generated primary key.
func (d *SqlDb) insert(primaryKeyColumnName string, query string, args ...any) (int, error) {
	if d.Dialect == util.DbDialectPostgres {
		var id int
		q := d.PrepareQuery(query) + " returning " + primaryKeyColumnName
		if err := d.sql.Db.QueryRow(q, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := d.exec(query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}
