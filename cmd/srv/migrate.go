package main

import "github.com/urfave/cli/v2"

func (s *srv) startMigrate(*cli.Context) error {
	if err := s.loadDatabase(); err != nil {
		return err
	}

	return s.migrateDB()
}
