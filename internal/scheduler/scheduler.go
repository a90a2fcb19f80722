// Package scheduler runs the periodic review sweep: a cron job that walks
// every live inventory session, counts assets whose assessment is overdue,
// publishes the count as a gauge and records the sweep in the audit log.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/complium/asset-inventory/internal/inventory"
	"github.com/complium/asset-inventory/internal/metrics"
	"github.com/complium/asset-inventory/internal/query"
	"github.com/complium/asset-inventory/internal/repo"
)

// Sweeper owns the cron runner. Audit may be nil (sweeps still run, just
// unrecorded).
type Sweeper struct {
	Manager *inventory.Manager
	Audit   *repo.AuditRepo

	cron *cron.Cron
}

// Start registers the sweep at cronExpr and starts the runner. The returned
// stop function waits for an in-flight sweep to finish.
func (s *Sweeper) Start(cronExpr string) (stop func(), err error) {
	c := cron.New()
	if _, err := c.AddFunc(cronExpr, func() { s.Sweep() }); err != nil {
		return nil, err
	}
	s.cron = c
	c.Start()
	slog.Info("review sweeper started", "cron", cronExpr)
	return func() { <-c.Stop().Done() }, nil
}

// Sweep counts overdue-assessment assets across all live org sessions and
// returns the count. Orgs nobody has loaded yet are skipped: no session
// means no reviewers either.
func (s *Sweeper) Sweep() int {
	start := time.Now()
	overdue := 0
	now := time.Now()
	for _, org := range s.Manager.Orgs() {
		session, ok := s.Manager.Peek(org)
		if !ok {
			continue
		}
		assets := session.Assets()
		due := query.Filter(assets, query.Filters{
			Flags: query.Flags{OverdueAssessment: true},
		}, now)
		overdue += len(due)
	}

	metrics.SetOverdueReviews(overdue)
	slog.Info("review sweep finished", "overdue", overdue, "took", time.Since(start))

	if s.Audit != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		details := fmt.Sprintf("%d assets overdue for assessment", overdue)
		if err := s.Audit.Log(ctx, 0, "review-sweep", "", details); err != nil {
			slog.Error("review sweep audit failed", "error", err)
		}
	}
	return overdue
}
