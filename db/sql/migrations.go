package sql

import "github.com/devboardui/devboard/util"

// migrate creates the schema if it does not exist yet. The id column type
// is the only dialect-specific part.
func (d *SqlDb) migrate() error {
	serial := "integer primary key auto_increment"
	switch d.Dialect {
	case util.DbDialectPostgres:
		serial = "serial primary key"
	case util.DbDialectSQLite:
		serial = "integer primary key autoincrement"
	}

	statements := []string{
		"create table if not exists `user` (" +
			"id " + serial + ", " +
			"username varchar(255) not null, " +
			"name varchar(255) not null default '', " +
			"email varchar(255) not null, " +
			"created timestamp not null)",

		"create table if not exists project (" +
			"id " + serial + ", " +
			"name varchar(255) not null, " +
			"created timestamp not null)",

		"create table if not exists project__user (" +
			"project_id int not null, " +
			"user_id int not null, " +
			"created timestamp not null, " +
			"primary key (project_id, user_id))",

		"create table if not exists project__invite (" +
			"id " + serial + ", " +
			"project_id int not null, " +
			"sender_user_id int not null, " +
			"receiver_user_id int not null, " +
			"status varchar(20) not null, " +
			"created timestamp not null, " +
			"resolved_at timestamp null)",

		"create table if not exists project__message (" +
			"id " + serial + ", " +
			"project_id int not null, " +
			"user_id int null, " +
			"sender varchar(255) not null, " +
			"body text not null, " +
			"created timestamp not null)",
	}

	for _, stmt := range statements {
		if _, err := d.exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
