package models

import (
	"log"

	"bitbucket.org/mmdatafocus/activity_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{}, &Mission{},
		&ActivityReport{}, &Entry{},
		&EntryReport{}, &EntryMission{}, &ReportMission{},
		&Document{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
