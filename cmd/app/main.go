// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/tabvault/cmd/app/commands"
	"github.com/allisson/tabvault/internal/app"
	"github.com/allisson/tabvault/internal/config"
)

const version = "1.0.0"

// withContainer runs fn with a fresh DI container, shutting it down afterwards.
func withContainer(fn func(ctx context.Context, container *app.Container) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		container := app.NewContainer(config.Load())
		defer func() {
			if err := container.Shutdown(context.Background()); err != nil {
				container.Logger().Error("failed to shutdown container", slog.Any("error", err))
			}
		}()
		return fn(ctx, container)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "tabvault",
		Usage:   "New-tab backend: token vault, feed cache and image pool",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the API and metrics servers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "clean-feed-cache",
				Usage: "Remove expired feed cache entries",
				Action: withContainer(func(ctx context.Context, container *app.Container) error {
					feedCache, err := container.FeedCache()
					if err != nil {
						return fmt.Errorf("failed to initialize feed cache: %w", err)
					}
					return commands.RunCleanFeedCache(ctx, feedCache, container.Logger(), os.Stdout)
				}),
			},
			{
				Name:  "clear-image-cache",
				Usage: "Drop the image pool and all stored image binaries",
				Action: withContainer(func(ctx context.Context, container *app.Container) error {
					imageCache, err := container.ImageCache()
					if err != nil {
						return fmt.Errorf("failed to initialize image cache: %w", err)
					}
					return commands.RunClearImageCache(ctx, imageCache, container.Logger(), os.Stdout)
				}),
			},
			{
				Name:  "clear-token",
				Usage: "Remove the stored encrypted access token",
				Action: withContainer(func(ctx context.Context, container *app.Container) error {
					vault, err := container.TokenVault()
					if err != nil {
						return fmt.Errorf("failed to initialize token vault: %w", err)
					}
					return commands.RunClearToken(ctx, vault, container.Logger(), os.Stdout)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
