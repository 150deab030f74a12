package main

import (
	"github.com/agromaps/cropmask-cli/internal/store"
)

func initStore() (store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		path = "cropmask.db"
	}
	return store.NewSQLite(path)
}
