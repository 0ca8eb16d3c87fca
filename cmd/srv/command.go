package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "Raffle"
	s.app.Usage = "Raffle service with verifiable randomness"
	s.app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path of the TOML config file, environment variables override its values",
			EnvVars: []string{"CONFIG_FILE"},
		},
	}
	s.app.Before = s.loadConfig
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used for start service api, it serves all raffle apis and consumes fulfilled randomness.`,
		},
		{
			Action:      s.startWatcher,
			Name:        "watcher",
			Usage:       "Start entropy watcher",
			Category:    "Worker",
			Description: `Used to scan the entropy contract and publish fulfilled randomness to the message queue.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database",
			Category:    "Database",
			Description: `Used to apply the database migrations, sqlite databases are auto migrated.`,
		},
	}
}
