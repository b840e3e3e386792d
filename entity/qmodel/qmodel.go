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

// Package qmodel is the query metamodel of the entity package: one type per
// table with a typed path per column.
package qmodel

import (
	"github.com/tomoncle/querystudy/entity"
	"github.com/tomoncle/querystudy/query"
)

// Default instances use the model aliases, which are also the relation
// aliases Bun uses for eager loading.
var (
	Member = NewMember("member")
	Team   = NewTeam("team")
)

type QMember struct {
	alias string

	ID       query.NumberPath[int64]
	Username query.StringPath
	Age      query.NumberPath[int]
	TeamID   query.NumberPath[int64]
}

// NewMember returns a member metamodel under alias, for self joins and
// sub-queries.
func NewMember(alias string) *QMember {
	m := &QMember{alias: alias}
	m.ID = query.NewNumberPath[int64](m, "id")
	m.Username = query.NewStringPath(m, "username")
	m.Age = query.NewNumberPath[int](m, "age")
	m.TeamID = query.NewNumberPath[int64](m, "team_id")
	return m
}

func (m *QMember) Table() string      { return "member" }
func (m *QMember) Alias() string      { return m.alias }
func (m *QMember) Model() interface{} { return (*entity.Member)(nil) }

// Team is the join target along member.team_id.
func (m *QMember) Team(t *QTeam) query.JoinTarget {
	return query.Association(t, "Team", t.ID.EqExpr(m.TeamID))
}

type QTeam struct {
	alias string

	ID   query.NumberPath[int64]
	Name query.StringPath
}

func NewTeam(alias string) *QTeam {
	t := &QTeam{alias: alias}
	t.ID = query.NewNumberPath[int64](t, "id")
	t.Name = query.NewStringPath(t, "name")
	return t
}

func (t *QTeam) Table() string      { return "team" }
func (t *QTeam) Alias() string      { return t.alias }
func (t *QTeam) Model() interface{} { return (*entity.Team)(nil) }

// Members is the join target along the inverse side of member.team_id.
func (t *QTeam) Members(m *QMember) query.JoinTarget {
	return query.Association(m, "Members", m.TeamID.EqExpr(t.ID))
}
