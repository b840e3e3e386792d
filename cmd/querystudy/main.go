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

// Command querystudy migrates and seeds a database from a config file and
// walks through the query layer, logging every result.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/querystudy/config"
	"github.com/tomoncle/querystudy/database"
	"github.com/tomoncle/querystudy/dto"
	"github.com/tomoncle/querystudy/entity"
	"github.com/tomoncle/querystudy/entity/qmodel"
	"github.com/tomoncle/querystudy/query"
	"github.com/tomoncle/querystudy/repository"
	"github.com/tomoncle/querystudy/types"
	"github.com/tomoncle/querystudy/utils"
	"github.com/uptrace/bun"
)

var errRollback = errors.New("rollback")

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	flag.Parse()

	log := utils.GetLogger("querystudy")
	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg.ApplyLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entity.Register()
	db, err := database.InitDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer func() { _ = database.CloseDB() }()

	if err := tour(ctx, log, db); err != nil {
		log.Fatalf("tour: %v", err)
	}
	log.WithField("health", database.GetHealthStatus(ctx).Healthy).Info("done")
}

func tour(ctx context.Context, log *logrus.Logger, db *bun.DB) error {
	f := query.NewFactory(db)
	m, t := qmodel.Member, qmodel.Team

	members, err := query.SelectFrom[entity.Member](f, m).
		Where(m.Age.Between(10, 30)).
		OrderBy(m.Age.Desc(), m.Username.Asc().NullsLast()).
		Fetch(ctx)
	if err != nil {
		return err
	}
	for _, member := range members {
		log.WithField("member", member.String()).Info("age between 10 and 30")
	}

	rows, err := query.Select[query.Tuple](f, t.Name, m.Age.Avg()).
		From(m).
		Join(m.Team(t)).
		GroupBy(t.Name).
		OrderBy(t.Name.Asc()).
		Fetch(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		log.WithFields(logrus.Fields{
			"team":    row.GetString(t.Name),
			"avg_age": row.GetFloat64(m.Age.Avg()),
		}).Info("average age per team")
	}

	teams := repository.NewTeamRepository(db)
	stats, err := teams.Stats(ctx)
	if err != nil {
		return err
	}
	for _, s := range stats {
		log.WithFields(logrus.Fields{
			"team": s.Name, "count": s.MemberCount, "sum": s.AgeSum,
			"max": s.AgeMax, "min": s.AgeMin,
		}).Info("team stats")
	}

	repo := repository.NewMemberRepository(db)
	goe := 20
	page, err := repo.SearchPageComplex(ctx,
		dto.MemberSearchCondition{AgeGoe: &goe},
		types.NewDefaultPageRequest(1, 2))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"total": page.Total, "pages": page.TotalPages(), "items": len(page.Items),
	}).Info("members aged 20 or more, first page")

	// bulk statements run in a transaction that is rolled back so the
	// seeded data stays intact
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		txRepo := repository.NewMemberRepository(tx)
		n, err := txRepo.BulkAddAge(ctx, 1)
		if err != nil {
			return err
		}
		log.WithField("rows", n).Info("bulk add age")
		n, err = txRepo.BulkDeleteOlderThan(ctx, 30)
		if err != nil {
			return err
		}
		log.WithField("rows", n).Info("bulk delete older than 30")
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		return err
	}
	return nil
}
