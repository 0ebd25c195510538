// totals-recheck recomputes every active report's totals from the entry
// ledger and prints drifted rows. Pass -repair to overwrite stored totals.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/totals-recheck [-repair]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/workflow"
)

func main() {
	repair := flag.Bool("repair", false, "overwrite stored totals with derived values")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	drifts, err := workflow.RunTotalsReconciliation(ctx, db, config.GetLogger(), *repair)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	for _, drift := range drifts {
		fmt.Printf("report %d: days %s -> %s, cents %d -> %d\n",
			drift.ReportId,
			drift.StoredTotalDays, drift.DerivedTotalDays,
			drift.StoredTotalAmountCents, drift.DerivedAmountCents)
	}
	fmt.Printf("checked totals, %d report(s) drifted (repair=%v)\n", len(drifts), *repair)
}
