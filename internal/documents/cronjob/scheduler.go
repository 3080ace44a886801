package cronjob

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/engdocs/docregister-backend/internal/documents/domain"
	"github.com/engdocs/docregister-backend/internal/documents/service"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the overdue report on a cron schedule.
type Scheduler struct {
	svc  *service.DocumentService
	spec string
	now  func() time.Time
	cron *cron.Cron
}

func NewScheduler(svc *service.DocumentService, spec string) *Scheduler {
	return &Scheduler{svc: svc, spec: spec, now: time.Now}
}

// Start registers the report and starts the cron loop. spec uses the
// six-field format with seconds.
func (s *Scheduler) Start() error {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			log.Printf("[error] request_id=background operation=overdue_report error=%v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create cron job: %w", err)
	}

	s.cron = c
	log.Printf("Cron scheduler started (overdue report at %q)", s.spec)
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running report to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce computes the summary as of now and logs every project with
// overdue documents. It returns the rows that have overdue documents.
func (s *Scheduler) RunOnce(ctx context.Context) ([]domain.ProjectSummaryRow, error) {
	report, err := s.svc.Summaries(ctx, s.now(), "")
	if err != nil {
		return nil, err
	}

	overdue := make([]domain.ProjectSummaryRow, 0, len(report.Rows))
	for _, row := range report.Rows {
		if row.Gecikmis == 0 {
			continue
		}
		overdue = append(overdue, row)
		log.Printf("[warn] request_id=background operation=overdue_report project=%s overdue=%d total=%d", row.ProjectCode, row.Gecikmis, row.Toplam)
	}
	log.Printf("[info] request_id=background operation=overdue_report projects=%d overdue_projects=%d degraded=%d",
		len(report.Rows), len(overdue), len(report.Degraded))
	return overdue, nil
}
