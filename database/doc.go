// Package database connects to SQLite, PostgreSQL or MySQL through Bun and
// prepares the schema: model registration, migrations, foreign keys and SQL
// seed files. It also classifies driver errors and provides the query
// logging and counting hooks.
package database
