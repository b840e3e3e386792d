// Package repository provides a generic repository built on Bun for CRUD,
// pagination, transactions and upserts, and the member and team
// repositories that compose typed queries on top of it.
package repository
