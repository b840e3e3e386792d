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

package entity

import (
	"fmt"

	"github.com/uptrace/bun"
)

// Member belongs to at most one team. An empty Username is stored as NULL
// and a zero TeamID means no team.
type Member struct {
	bun.BaseModel `bun:"table:member,alias:member"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,nullzero" json:"username"`
	Age      int    `bun:"age,notnull" json:"age"`
	TeamID   int64  `bun:"team_id,nullzero" json:"team_id,omitempty"`
	Team     *Team  `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
}

// NewMember creates a member and, when team is not nil, attaches it.
func NewMember(username string, age int, team *Team) *Member {
	m := &Member{Username: username, Age: age}
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

// ChangeTeam moves the member to team and keeps both sides of the
// association consistent in memory. The team must be saved first for
// TeamID to be meaningful.
func (m *Member) ChangeTeam(team *Team) {
	if m.Team != nil && m.Team != team {
		m.Team.Members = removeMember(m.Team.Members, m)
	}
	m.Team = team
	if team == nil {
		m.TeamID = 0
		return
	}
	m.TeamID = team.ID
	for _, existing := range team.Members {
		if existing == m {
			return
		}
	}
	team.Members = append(team.Members, m)
}

func removeMember(members []*Member, m *Member) []*Member {
	out := members[:0]
	for _, existing := range members {
		if existing != m {
			out = append(out, existing)
		}
	}
	return out
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, m.Username, m.Age)
}
