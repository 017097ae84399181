// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the config file, token cache, and catalog.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config, token cache, and catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Run the browser flow even when a cached token exists",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the cached token's state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard the cached token",
				Action: r.AuthLogout,
			},
		},
	}
}

// populateCommand pulls the library into the catalog.
func populateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "populate",
		Usage:  "Pull playlist and saved-album tracks into the catalog and fetch missing audio features",
		Action: r.Populate,
	}
}

// serveCommand runs the labeling web service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Populate the catalog and serve the labeling web UI",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-populate",
				Usage: "Start the server without refreshing the catalog",
			},
		},
		Action: r.Serve,
	}
}

// labelCommand launches the terminal labeling session.
func labelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "label",
		Aliases: []string{"tui"},
		Usage:   "Label tracks interactively in the terminal",
		Action:  r.Label,
	}
}

// featuresCommand manages label namespaces.
func featuresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "Manage label features",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List declared features and their label counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.FeaturesList,
			},
			{
				Name:  "add",
				Usage: "Declare a new feature",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Action: r.FeaturesAdd,
			},
		},
	}
}

// datasetCommand exports fitting and prediction datasets.
func datasetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dataset",
		Usage: "Build a dataset from the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "feature",
				Aliases: []string{"f"},
				Usage:   "Build a fitting dataset for this feature",
			},
			&cli.BoolFlag{
				Name:  "prediction",
				Usage: "Build a prediction dataset over every track with a vector",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: csv or json",
				Value: "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output base path (extension is appended)",
			},
		},
		Action: r.Dataset,
	}
}

// statusCommand prints a catalog summary.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show catalog contents and labeling progress",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "markdown",
				Usage: "Render the summary as Markdown",
			},
		},
		Action: r.Status,
	}
}
