package main

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/internal/script"
	"github.com/goliatone/go-response-cache/pkg/di"
	"github.com/goliatone/go-response-cache/transport"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "respcache",
		Usage:   "replay cache scripts against a JSON API",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "cache config file (YAML); RESPCACHE_* variables are used when unset",
				Sources: cli.EnvVars("RESPCACHE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			configCommand(),
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a script of cache operations",
		UsageText: "respcache run [options] SCRIPT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Aliases: []string{"u"},
				Usage:   "API base URL",
				Sources: cli.EnvVars("RESPCACHE_HTTP_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token sent with every request",
				Sources: cli.EnvVars("RESPCACHE_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output format: text or json",
				Value:   script.FormatText,
			},
		},
		Action: runAction,
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective cache configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(config)
			if err != nil {
				return err
			}
			_, err = cmd.Root().Writer.Write(out)
			return err
		},
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("run: script path is required")
	}

	s, err := script.Load(path)
	if err != nil {
		return err
	}

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	httpConfig, err := transport.LoadHTTPConfigFromEnv()
	if err != nil {
		return err
	}
	if baseURL := cmd.String("base-url"); baseURL != "" {
		httpConfig.BaseURL = baseURL
	}

	var tokens transport.TokenSource
	if token := cmd.String("token"); token != "" {
		tokens = transport.StaticToken(token)
	}

	logger := log.WithField("script", path)
	tr := transport.NewHTTP(httpConfig,
		transport.WithTokenSource(tokens),
		transport.WithLogger(logger),
	)

	container, err := di.NewContainer(config, tr, di.WithLogger(logger))
	if err != nil {
		return err
	}

	start := time.Now()
	results, runErr := script.NewRunner(container, logger).Run(ctx, s)
	container.Wait()

	rep := script.Report{
		Script:  s.Name,
		Results: results,
		Totals:  container.Metrics().Snapshot(),
		Elapsed: time.Since(start),
	}
	if err := script.Render(cmd.Root().Writer, cmd.String("output"), rep); err != nil {
		return err
	}
	return runErr
}

func loadConfig(cmd *cli.Command) (cache.Config, error) {
	var (
		config cache.Config
		err    error
	)
	if path := cmd.String("config"); path != "" {
		config, err = cache.LoadConfigFile(path)
	} else {
		config, err = cache.LoadConfigFromEnv()
	}
	if err != nil {
		return cache.Config{}, err
	}
	if err := config.Validate(); err != nil {
		return cache.Config{}, fmt.Errorf("invalid cache config: %w", err)
	}
	return config, nil
}
