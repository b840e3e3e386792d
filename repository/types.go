/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"

	"github.com/tomoncle/querystudy/query"
	"github.com/tomoncle/querystudy/types"
	"github.com/uptrace/bun"
)

// Reader loads entities of type T. Lookups by id fail with sql.ErrNoRows.
type Reader[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)
	GetAll(ctx context.Context) ([]*T, error)
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)
	// Query applies a raw WHERE fragment.
	Query(ctx context.Context, where string, args ...interface{}) ([]*T, error)
	// Search skips zero predicates, so an empty search returns everything.
	Search(ctx context.Context, predicates ...query.Predicate) ([]*T, error)
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[*T], error)
}

type Writer[T any] interface {
	Create(ctx context.Context, entities ...*T) error
	// Upsert updates fields of the rows that collide on duplicateKeys.
	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entities ...*T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id any) error
}

// TxWriter runs the Writer operations inside a transaction owned by the
// caller.
type TxWriter[T any] interface {
	CreateWithTx(ctx context.Context, tx *bun.Tx, entities ...*T) error
	UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entities ...*T) error
	UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error
	DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error
}

// Repository is the data access of one entity type, bound to a *bun.DB or
// a bun.Tx.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
	TxWriter[T]

	DB() bun.IDB
	// Queries returns a typed query factory on the bound connection.
	Queries() *query.Factory

	WithTx(tx bun.Tx) Repository[T]
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T]) error) error
}
