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

// Package dto holds projection result shapes. Fields are filled by column
// name, so projected expressions must be named to match the bun tags.
package dto

import "fmt"

type MemberDto struct {
	Username string `bun:"username" json:"username"`
	Age      int    `bun:"age" json:"age"`
}

func NewMemberDto(username string, age int) MemberDto {
	return MemberDto{Username: username, Age: age}
}

func (d MemberDto) String() string {
	return fmt.Sprintf("MemberDto(username=%s, age=%d)", d.Username, d.Age)
}

// UserDto has a differently named field, so the username column must be
// projected as "name".
type UserDto struct {
	Name string `bun:"name" json:"name"`
	Age  int    `bun:"age" json:"age"`
}

func (d UserDto) String() string {
	return fmt.Sprintf("UserDto(name=%s, age=%d)", d.Name, d.Age)
}

type MemberTeamDto struct {
	MemberID int64  `bun:"member_id" json:"member_id"`
	Username string `bun:"username" json:"username"`
	Age      int    `bun:"age" json:"age"`
	TeamID   int64  `bun:"team_id" json:"team_id"`
	TeamName string `bun:"team_name" json:"team_name"`
}

// MemberSearchCondition is a dynamic search. Empty strings and nil bounds
// do not restrict the result.
type MemberSearchCondition struct {
	Username string `json:"username"`
	TeamName string `json:"team_name"`
	AgeGoe   *int   `json:"age_goe,omitempty"`
	AgeLoe   *int   `json:"age_loe,omitempty"`
}

// TeamStats aggregates the members of one team.
type TeamStats struct {
	Name        string  `bun:"name" json:"name"`
	MemberCount int64   `bun:"member_count" json:"member_count"`
	AgeSum      int64   `bun:"age_sum" json:"age_sum"`
	AgeAvg      float64 `bun:"age_avg" json:"age_avg"`
	AgeMax      int     `bun:"age_max" json:"age_max"`
	AgeMin      int     `bun:"age_min" json:"age_min"`
}
