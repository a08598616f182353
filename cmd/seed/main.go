// Command seed loads zone definitions from a JSON file into the row
// store, adapted from the teacher's cmd/migrate bulk-load CLI (same
// flag-driven, read-file-then-bulk-insert shape; a zone list stands in
// for its image-filename scan).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"webserver/internal/model"
	"webserver/internal/sqlitestore"
	"webserver/internal/zonestore"
)

func main() {
	zonesPath := flag.String("zones", "zones.json", "JSON file of zone definitions to seed")
	dbPath := flag.String("db", "data/zones.db", "Database path")
	flag.Parse()

	fmt.Printf("Seeding zones from %s into database %s\n", *zonesPath, *dbPath)

	data, err := os.ReadFile(*zonesPath)
	if err != nil {
		log.Fatalf("Failed to read zones file: %v", err)
	}

	var inputs []model.ZoneInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		log.Fatalf("Failed to parse zones file: %v", err)
	}
	if len(inputs) == 0 {
		fmt.Println("No zones found to seed")
		return
	}

	db, err := sqlitestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store := zonestore.New(sqlitestore.NewZoneRepository(db), nil)

	created := 0
	skipped := 0
	for _, input := range inputs {
		if _, err := store.Create(input); err != nil {
			log.Printf("skipping zone %q: %v", input.Name, err)
			skipped++
			continue
		}
		created++
	}

	fmt.Printf("Seeded %d zones into database\n", created)
	if skipped > 0 {
		fmt.Printf("Skipped %d zones (invalid input)\n", skipped)
	}
}
