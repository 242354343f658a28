// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package hyena maps Go structs onto database tables and reads them back, one
query per call.

The mapping is declared on the type itself. Fields are mapped to columns with
`db` struct tags, the primary key is flagged with "pk", and the table is named
by a field of the marker type [Table]:

	type User struct {
		_    hyena.Table `db:"Users"`
		ID   int         `db:"UserId,pk"`
		Name string      `db:"UserName"`
	}

Fields without a `db` tag are ignored. Instead of a [Table] field a type may
have a TableName method, see [Tabler].

# Basics

A [DB] is created once and passed to the load functions:

	db, err := hyena.Open("sqlite3", "users.db")
	...
	users, err := hyena.LoadAll[User](ctx, db)
	// SELECT UserId,UserName FROM Users

	user, err := hyena.LoadByKey[User](ctx, db, 2)
	// SELECT UserId,UserName FROM Users WHERE UserId = :UserId

The key is passed to the driver as a bound parameter. The parameter syntax
depends on the backend, see package dialect.

Every call resolves the mapping of its type, checks it, then opens a
connection, runs a single query and closes the connection again, whatever the
outcome. No state is kept between calls.

# Records

Results are read into records by column name, so the order in which the
database returns the columns does not matter. A column that is NULL leaves its
field as it was when the record was constructed. Records are constructed as
zero values, after which SetDefaults is called if the type is a [Defaulter].

LoadByKey does not report a missing row: if no row matches, it returns a newly
constructed record. If several rows match, the last one read wins.

Types that cannot carry struct tags can describe themselves with a [Mapping]
by implementing [Mapper].

# Errors

A type that cannot be loaded fails before any connection is opened, with one
of [ErrMissingFieldNames], [ErrMissingPrimaryKey], [ErrMissingTableName] or
[ErrMissingConstructor]. Use errors.Is to test for them. Errors from the driver
are returned unchanged.
*/
package hyena
