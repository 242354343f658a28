// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package demo

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/hyena"
)

type Person struct {
	_        hyena.Table `db:"people"`
	ID       int         `db:"id,pk"`
	Name     string      `db:"name"`
	Height   int         `db:"height_cm"`
	HomeTown string      `db:"home_town"`
}

type Place struct {
	Name       string `db:"town_name,pk"`
	Population int    `db:"population"`
}

func (Place) TableName() string { return "location" }

func (p *Place) SetDefaults() {
	p.Population = -1
}

func example() error {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer sqldb.Close()
	sqldb.SetMaxOpenConns(1)

	_, err = sqldb.Exec(`
		CREATE TABLE people (
			id integer,
			name text,
			height_cm integer,
			home_town text
		);
		CREATE TABLE location (
			town_name text,
			population integer
		);`)
	if err != nil {
		return err
	}

	var people = []Person{{ID: 1, Name: "Jim", Height: 150, HomeTown: "Kabul"}, {ID: 2, Name: "Saba", Height: 162, HomeTown: "Berlin"}, {ID: 3, Name: "Dave", Height: 169, HomeTown: "Brasília"}, {ID: 4, Name: "Sophie", Height: 174, HomeTown: "Berlin"}, {ID: 5, Name: "Kiri", Height: 168, HomeTown: "Cape Town"}}
	var places = []Place{{"Kabul", 13000000}, {"Berlin", 3677472}, {"Brasília", 3039444}}

	// Insert the people and places. hyena only reads.
	for _, p := range people {
		_, err := sqldb.Exec("INSERT INTO people VALUES (?, ?, ?, ?)", p.ID, p.Name, p.Height, p.HomeTown)
		if err != nil {
			return err
		}
	}
	for _, p := range places {
		_, err := sqldb.Exec("INSERT INTO location VALUES (?, ?)", p.Name, p.Population)
		if err != nil {
			return err
		}
	}

	db := hyena.NewDB(sqldb)
	ctx := context.Background()

	// Find people taller than Jim.
	jim, err := hyena.LoadByKey[Person](ctx, db, 1)
	if err != nil {
		return err
	}
	all, err := hyena.LoadAll[Person](ctx, db)
	if err != nil {
		return err
	}
	for _, p := range all {
		if p.Height > jim.Height {
			fmt.Printf("%s is taller than %s.\n", p.Name, jim.Name)
		}
	}

	// Look up the home towns of the tall people. Cape Town is not in the
	// table and comes back with the default population.
	for _, p := range all {
		if p.Height <= jim.Height {
			continue
		}
		town, err := hyena.LoadByKey[Place](ctx, db, p.HomeTown)
		if err != nil {
			return err
		}
		fmt.Printf("%s lives in %s, population %d.\n", p.Name, p.HomeTown, town.Population)
	}
	return nil
}

func main() {
	err := example()
	if err != nil {
		panic(err)
	}
}
