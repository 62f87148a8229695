package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/localnerve/grants-portal/internal/database"
)

type schemaObject struct {
	Type string
	Name string
	SQL  string
}

// inspect_schema migrates an in memory SQLite database and prints the DDL of
// every table and index, optionally for one table only.
func main() {
	table := flag.String("table", "", "only print this table and its indexes")
	flag.Parse()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	q := db.Table("sqlite_master").
		Select("type, name, sql").
		Where("sql IS NOT NULL AND name NOT LIKE 'sqlite_%'")
	if *table != "" {
		q = q.Where("tbl_name = ?", *table)
	}
	var objects []schemaObject
	if err := q.Order("tbl_name, type DESC, name").Scan(&objects).Error; err != nil {
		log.Fatal(err)
	}

	for _, o := range objects {
		fmt.Printf("\n-- %s: %s\n%s;\n", o.Type, o.Name, o.SQL)
	}
}
