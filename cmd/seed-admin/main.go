// seed-admin creates the admin user (username: activityAdmin) if absent.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/models"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
)

const (
	adminUsername = "activityAdmin"
	adminName     = "Activity Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).Count(&count).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup admin user: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Println("admin user already exists")
		return
	}

	user, err := models.CreateUser(ctx, &models.NewUser{
		Name:     adminName,
		Username: adminUsername,
		Password: password,
		IsAdmin:  utils.NewTrue(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created admin user %s (id %d)\n", user.Username, user.ID)
}
