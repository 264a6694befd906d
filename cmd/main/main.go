package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/pixel/internal/config"
	"storefront/pixel/internal/container"
	"storefront/pixel/internal/domain"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	app := &cli.App{
		Name:  "pixel",
		Usage: "derive analytics pixel values for catalog products",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "derive and print the view of one product",
				Flags:  []cli.Flag{productFlag()},
				Action: withContainer(show),
			},
			{
				Name:   "enqueue",
				Usage:  "queue products for the workers",
				Flags:  []cli.Flag{productFlag()},
				Action: withContainer(enqueue),
			},
			{
				Name:   "view",
				Usage:  "print the view a worker stored for a product",
				Flags:  []cli.Flag{productFlag()},
				Action: withContainer(view),
			},
			{
				Name:   "work",
				Usage:  "process queued products until interrupted",
				Action: withContainer(work),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}
}

func productFlag() cli.Flag {
	return &cli.Int64SliceFlag{
		Name:     "product-id",
		Aliases:  []string{"p"},
		Usage:    "product entity id, repeatable",
		Required: true,
	}
}

func productIDs(c *cli.Context) []domain.ProductID {
	raw := c.Int64Slice("product-id")
	ids := make([]domain.ProductID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, domain.ProductID(id))
	}
	return ids
}

// withContainer loads configuration and builds the container before running action
func withContainer(action func(ctx context.Context, c *cli.Context, app *container.Container) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level, err := log.ParseLevel(strings.ToLower(cfg.Log.Level))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(level)
		log.Debug("Configuration loaded successfully")

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := container.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer app.Close()

		return action(ctx, c, app)
	}
}

func show(ctx context.Context, c *cli.Context, app *container.Container) error {
	if !app.Helper.Enabled() {
		log.Warn("⚠️ Pixel is disabled in configuration")
	}

	for _, id := range productIDs(c) {
		v, err := app.Service.BuildView(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to derive view of product %d: %w", id, err)
		}
		if err := printJSON(c, v); err != nil {
			return err
		}
	}
	return nil
}

func enqueue(ctx context.Context, c *cli.Context, app *container.Container) error {
	return app.Service.Enqueue(ctx, productIDs(c))
}

func view(ctx context.Context, c *cli.Context, app *container.Container) error {
	for _, id := range productIDs(c) {
		v, err := app.Service.StoredView(ctx, id)
		if err != nil {
			return err
		}
		if v == nil {
			log.Infof("No view stored for product %d", id)
			continue
		}
		if err := printJSON(c, v); err != nil {
			return err
		}
	}
	return nil
}

func work(ctx context.Context, _ *cli.Context, app *container.Container) error {
	log.Info("Starting pixel view workers...")
	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info("Workers finished")
	return nil
}

func printJSON(c *cli.Context, v *domain.ProductView) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
