// Command-line client for submitting and browsing civic reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"civicreport/client"
	"civicreport/models"

	"github.com/apex/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "civic",
		Usage: "submit and browse civic reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:5000",
				Usage:   "base URL of the reports API",
				EnvVars: []string{"CIVIC_SERVER"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "submit a new report",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "description", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "severity", Value: "Low", Usage: "Low, Medium, Severe or Critical"},
					&cli.StringFlag{Name: "image", Usage: "path to an image file"},
					&cli.Float64Flag{Name: "lat", Required: true},
					&cli.Float64Flag{Name: "lng", Required: true},
				},
				Action: submit,
			},
			{
				Name:  "gallery",
				Usage: "list all reports, newest first",
				Action: func(c *cli.Context) error {
					reports, err := newClient(c).ListReports(c.Context)
					if err != nil {
						return err
					}
					client.RenderGallery(os.Stdout, reports)
					return nil
				},
			},
			{
				Name:  "leaderboard",
				Usage: "rank reporters by number of reports",
				Action: func(c *cli.Context) error {
					entries, err := newClient(c).Leaderboard(c.Context)
					if err != nil {
						return err
					}
					client.RenderLeaderboard(os.Stdout, entries)
					return nil
				},
			},
			{
				Name:  "dashboard",
				Usage: "show report counters",
				Action: func(c *cli.Context) error {
					kpis, err := newClient(c).KPIs(c.Context)
					if err != nil {
						return err
					}
					client.RenderDashboard(os.Stdout, kpis)
					return nil
				},
			},
			{
				Name:  "listen",
				Usage: "print new reports as they are created",
				Action: func(c *cli.Context) error {
					log.Info("Listening for new reports, Ctrl-C to stop")
					return newClient(c).Listen(c.Context, func(r models.Report) {
						client.RenderGallery(os.Stdout, []models.Report{r})
					})
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"))
}

func submit(c *cli.Context) error {
	lat, lng := c.Float64("lat"), c.Float64("lng")
	draft := client.Draft{
		Title:       c.String("title"),
		Description: c.String("description"),
		Email:       c.String("email"),
		Severity:    c.String("severity"),
		Lat:         &lat,
		Lng:         &lng,
	}
	if path := c.String("image"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		draft.Filename = filepath.Base(path)
		draft.Image = data
	}

	id, err := newClient(c).SubmitReport(c.Context, draft)
	if err != nil {
		return err
	}
	log.Infof("Report created with id %d", id)
	return nil
}
