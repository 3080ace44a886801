package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/engdocs/docregister-backend/config"
	"github.com/engdocs/docregister-backend/internal/bootstrap"
	"github.com/engdocs/docregister-backend/internal/documents/service"
)

// runSummary prints the project summary report as JSON to stdout.
func runSummary(args []string) error {
	fset := flag.NewFlagSet("summary", flag.ExitOnError)
	project := fset.String("project", "", "restrict the report to one project code")
	nowRaw := fset.String("now", "", "evaluation time (RFC3339), defaults to the current time")
	if err := fset.Parse(args); err != nil {
		return err
	}

	now := time.Now().UTC()
	if *nowRaw != "" {
		t, err := time.Parse(time.RFC3339, *nowRaw)
		if err != nil {
			return fmt.Errorf("invalid -now: %w", err)
		}
		now = t
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()

	backends, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	engine, err := bootstrap.NewEngine(&cfg.Approval)
	if err != nil {
		return err
	}

	// The report never touches revision files.
	svc := service.NewDocumentService(backends.Store, nil, engine)
	report, err := svc.Summaries(ctx, now, *project)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
