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

// Package query is a typed query layer over Bun. Entities expose column
// paths, paths build predicates and projections, and a Factory turns them
// into Bun select, update and delete queries.
//
//	m := qmodel.Member
//	members, err := query.SelectFrom[entity.Member](f, m).
//		Where(m.Username.Eq("member1"), m.Age.Between(10, 30)).
//		OrderBy(m.Age.Desc(), m.Username.Asc().NullsLast()).
//		Fetch(ctx)
//
// A zero Predicate means "no condition" and is skipped wherever predicates
// are combined, which keeps dynamic search conditions free of branching.
package query
