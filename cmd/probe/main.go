// probe tries candidate SmartUp API paths against a deployment and reports
// which ones answer with a recognizable product list. Deployments mount the
// trade API under different prefixes, so this is the first thing to run
// when onboarding a new installation.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/smartup"
)

// defaultPaths are the endpoint layouts seen across SmartUp installations.
var defaultPaths = []string{
	"/api/v1/products",
	"/api/products",
	"/b/trade/ref/products",
	"/b/trade/txs/tdeal/product$export",
	"/b/anor/mxsx/mr/products",
	"/anor/api/v2/mkr/products",
	"/anor/api/v2/mkr/product_list",
}

func main() {
	if err := godotenv.Load(".env"); err == nil {
		log.Println("loaded .env")
	}

	app := &cli.App{
		Name:  "probe",
		Usage: "Discover working upstream API endpoints",
		Commands: []*cli.Command{
			{
				Name:  "smartup",
				Usage: "Try candidate SmartUp API paths with Basic auth",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server",
						Usage:   "SmartUp server URL",
						Value:   smartup.DefaultServerURL,
						EnvVars: []string{"SMARTUP_SERVER_URL"},
					},
					&cli.StringFlag{
						Name:     "login",
						Usage:    "SmartUp login",
						Required: true,
						EnvVars:  []string{"SMARTUP_LOGIN"},
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "SmartUp password",
						Required: true,
						EnvVars:  []string{"SMARTUP_PASSWORD"},
					},
					&cli.StringFlag{
						Name:  "paths",
						Usage: "File with one candidate API path per line (default: built-in list)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Per-request timeout",
						Value: 15 * time.Second,
					},
				},
				Action: probeSmartUp,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func probeSmartUp(c *cli.Context) error {
	paths := defaultPaths
	if file := c.String("paths"); file != "" {
		loaded, err := loadPaths(file)
		if err != nil {
			return err
		}
		paths = loaded
	}

	httpClient := httpx.New(httpx.Options{
		Timeout: c.Duration("timeout"),
		// a probe should fail fast, not wait out rate limits
		MaxRetries:     1,
		RateWaitBudget: time.Second,
	})

	fmt.Printf("probing %s with %d candidate paths\n\n", c.String("server"), len(paths))

	var working int
	for _, path := range paths {
		client := smartup.NewClient(httpClient, smartup.Credentials{
			Login:     c.String("login"),
			Password:  c.String("password"),
			ServerURL: c.String("server"),
			APIPath:   path,
		})

		status := client.TestConnection(c.Context)
		if status.OK {
			working++
			fmt.Printf("  OK   %-45s status=%d shape=%s rows=%d\n", path, status.StatusCode, status.Shape, status.RowCount)
			continue
		}
		detail := status.Message
		if status.StatusCode > 0 {
			detail = fmt.Sprintf("status=%d", status.StatusCode)
		}
		fmt.Printf("  FAIL %-45s %s\n", path, detail)
	}

	fmt.Printf("\n%d of %d paths answered with a product list\n", working, len(paths))
	if working == 0 {
		return cli.Exit("no working endpoint found", 1)
	}
	return nil
}

func loadPaths(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open paths file: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read paths file: %w", err)
	}
	return paths, nil
}
