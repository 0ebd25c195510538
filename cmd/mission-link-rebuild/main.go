// mission-link-rebuild re-derives the report_missions cache of every
// active report from the entry ledger and repairs drifted rows.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/mission-link-rebuild
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/workflow"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	drifted, err := workflow.RebuildMissionLinks(ctx, db, config.GetLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("rebuild complete, %d report(s) repaired\n", drifted)
}
