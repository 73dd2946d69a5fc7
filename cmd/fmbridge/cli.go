package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/fmbridge/fmbridge/internal/client"
	"github.com/fmbridge/fmbridge/internal/commands"
	"github.com/fmbridge/fmbridge/internal/config"
	"github.com/fmbridge/fmbridge/internal/credential"
	"github.com/fmbridge/fmbridge/internal/fixture"
	"github.com/fmbridge/fmbridge/internal/jmap"
	"github.com/fmbridge/fmbridge/internal/mcp"
	"github.com/fmbridge/fmbridge/internal/server"
)

// placeholder credentials shipped as defaults; verify warns about them.
const (
	placeholderUsername    = "local-user"
	placeholderAppPassword = "local-app-password"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "fmbridge",
		Usage:   "Agent bridge to a Fastmail-style JMAP backend",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigPath(),
				Usage:   "Path to the YAML config file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			mcpCmd(),
			verifyCmd(),
			authCmd(),
		},
		// No subcommand with piped stdin → stdio dispatcher.
		Action: func(c *cli.Context) error {
			return runStdio(c)
		},
	}
	return app
}

// setupLogger configures slog on stderr; stdout belongs to the protocol.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	fillFromKeyring(cfg)
	return cfg, nil
}

// fillFromKeyring resolves credentials the config left at their
// placeholder defaults. Keyring misses are not errors; the transport
// reports authentication failures when it actually needs credentials.
func fillFromKeyring(cfg *config.Config) {
	if cfg.Token == "" {
		if token, err := credential.Get(credential.KeyToken); err == nil && token != "" {
			cfg.Token = token
		}
	}
	if cfg.Token == "" && cfg.AppPassword == placeholderAppPassword {
		if password, err := credential.Get(credential.KeyAppPassword); err == nil && password != "" {
			cfg.AppPassword = password
		}
	}
}

func buildService(cfg *config.Config, logger *slog.Logger) (client.Service, *jmap.Transport) {
	transport := jmap.NewTransport(cfg.BaseURL, cfg.Username, cfg.AppPassword, cfg.Token, cfg.RequestTimeout())
	fixtures := &fixture.Source{
		MessagesPath: cfg.MessagesFixturePath(),
		ContactsPath: cfg.ContactsFixturePath(),
		EventsPath:   cfg.EventsFixturePath(),
	}
	svc := client.New(transport, fixtures, client.Options{
		EnableWrite: cfg.EnableWrite,
		Logger:      logger,
	})
	return svc, transport
}

func buildDispatcher(cfg *config.Config, logger *slog.Logger) (*server.Dispatcher, error) {
	svc, _ := buildService(cfg, logger)
	registry := server.NewRegistry()
	if err := commands.RegisterAll(registry, svc, cfg.EnableWrite); err != nil {
		return nil, err
	}
	return server.NewDispatcher(registry, logger), nil
}

func runStdio(c *cli.Context) error {
	logger := setupLogger(c.Bool("verbose"))
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dispatcher, err := buildDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("serving command protocol on stdio")
	return dispatcher.HandleStream(c.Context, os.Stdin, os.Stdout)
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the command dispatcher on stdio or a TCP socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Value: "stdio", Usage: "Transport: stdio|tcp"},
			&cli.StringFlag{Name: "host", Usage: "TCP bind host (defaults from config)"},
			&cli.IntFlag{Name: "port", Usage: "TCP bind port (defaults from config)"},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.Bool("verbose"))
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			dispatcher, err := buildDispatcher(cfg, logger)
			if err != nil {
				return err
			}

			switch c.String("transport") {
			case "stdio":
				logger.Info("serving command protocol on stdio")
				return dispatcher.HandleStream(c.Context, os.Stdin, os.Stdout)
			case "tcp":
				host := cfg.TCPHost
				if c.IsSet("host") {
					host = c.String("host")
				}
				port := cfg.TCPPort
				if c.IsSet("port") {
					port = c.Int("port")
				}
				return dispatcher.ServeTCP(c.Context, fmt.Sprintf("%s:%d", host, port))
			default:
				return fmt.Errorf("unknown transport %q (want stdio or tcp)", c.String("transport"))
			}
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the Model Context Protocol server on stdio",
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.Bool("verbose"))
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			svc, _ := buildService(cfg, logger)
			return mcp.Run(svc, cfg.EnableWrite, Version)
		},
	}
}

// verifyCmd creates the verify command.
func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check connectivity, credentials and capability coverage",
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.Bool("verbose"))
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			if cfg.Token == "" && (cfg.Username == placeholderUsername || cfg.AppPassword == placeholderAppPassword) {
				fmt.Println("warning: placeholder credentials in use; set FASTMAIL_USERNAME and FASTMAIL_APP_PASSWORD or run 'fmbridge auth'")
			}

			_, transport := buildService(cfg, logger)
			session, err := transport.Session(c.Context)
			if err != nil {
				return fmt.Errorf("session discovery failed: %w", err)
			}
			fmt.Printf("session resolved: %s\n", session.APIURL)

			for _, capability := range []string{jmap.CapabilityMail, jmap.CapabilityContacts, jmap.CapabilityCalendars} {
				if accountID, ok := session.Accounts[capability]; ok {
					fmt.Printf("  %s: account %s\n", capability, accountID)
				} else {
					fmt.Printf("  %s: not available for this account\n", capability)
				}
			}

			if _, ok := session.Accounts[jmap.CapabilityMail]; ok {
				messages, err := transport.ListMessages(c.Context, 1)
				if err != nil {
					return fmt.Errorf("test fetch failed: %w", err)
				}
				fmt.Printf("test fetch ok (%d message(s))\n", len(messages))
			}
			return nil
		},
	}
}

// authCmd creates the auth command group.
func authCmd() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage credentials in the OS keyring",
		Subcommands: []*cli.Command{
			{
				Name:      "set-token",
				Usage:     "Store an API bearer token",
				ArgsUsage: "[token]",
				Action: func(c *cli.Context) error {
					value, err := secretArg(c, "token")
					if err != nil {
						return err
					}
					if err := credential.Set(credential.KeyToken, value); err != nil {
						return err
					}
					fmt.Println("token stored")
					return nil
				},
			},
			{
				Name:      "set-password",
				Usage:     "Store the app password",
				ArgsUsage: "[password]",
				Action: func(c *cli.Context) error {
					value, err := secretArg(c, "password")
					if err != nil {
						return err
					}
					if err := credential.Set(credential.KeyAppPassword, value); err != nil {
						return err
					}
					fmt.Println("password stored")
					return nil
				},
			},
		},
	}
}

// secretArg takes the secret from the first positional argument, or
// reads one line from stdin when piped.
func secretArg(c *cli.Context, name string) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	if isTerminal() {
		return "", fmt.Errorf("%s required: pass as argument or pipe on stdin", name)
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading %s from stdin: %w", name, err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%s must not be empty", name)
	}
	return value, nil
}
