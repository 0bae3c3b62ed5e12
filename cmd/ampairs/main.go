// main wires the SDK into a terminal client: config, stores, device identity,
// the transport chain, and the session manager. Command logic stays thin;
// behavior lives in the internal packages.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/api"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/device"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/otp"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/platform/config"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/platform/logger"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/platform/redis"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/session"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/tokens"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/transport"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/workspace"
	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file overlaying the environment")
	flag.Usage = printUsage
	flag.Parse()

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(cfg, *configPath); err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
	}
	// An interactive terminal gets readable text logs, kept at warn so they
	// don't interleave with prompts; AMPAIRS_DEBUG opens the floodgates.
	level := slog.LevelWarn
	if os.Getenv("AMPAIRS_DEBUG") == "true" {
		level = slog.LevelDebug
	}
	log := logger.NewText(level)

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `ampairs - terminal client for the ampairs backend

Usage:
  ampairs [-config file.yaml] <command> [args]

Commands:
  login        Sign in with a mobile number and OTP
  status       Show the current session state
  whoami       Fetch the current profile
  logout       End the current session
  logout-all   End every session of this user
  devices      List signed-in devices
  workspaces   List workspaces
  use <id>     Select the active workspace
  members      List members of the active workspace

Configuration comes from AMPAIRS_* environment variables, an optional .env
file, and the -config overlay.`)
}

type app struct {
	cfg       config.Client
	log       *slog.Logger
	stdin     *bufio.Reader
	mgr       *session.Manager
	client    *api.Client
	selection *workspace.Selection
	redis     *redis.Client
}

func newApp(ctx context.Context, cfg config.Client, log *slog.Logger) (*app, error) {
	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		// Redis is a replication tier, never a requirement.
		log.Warn("redis unavailable, continuing without it", "error", err)
		rdb = nil
	}

	store := tokens.NewFileStore(cfg.StateDir)

	backends := []device.Backend{device.NewFileBackend(cfg.StateDir)}
	if rdb != nil {
		backends = append(backends, device.NewRedisBackend(rdb.Client))
	}
	backends = append(backends, device.NewMemoryBackend())
	provider := device.NewProvider(log, device.CollectEnvironment(cfg.UserAgent), cfg.StateDir, backends...)

	mgr := session.NewManager(log, store, provider, device.MetadataFromUserAgent(cfg.UserAgent), session.Config{
		CountryCode: cfg.CountryCode,
		ExpiryDefaults: tokens.ExpiryDefaults{
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
	})

	selection := workspace.NewSelection(cfg.StateDir)

	rt := transport.Chain(http.DefaultTransport,
		transport.Tracing(),
		transport.LoadingIndicator(transport.NewTracker()),
		transport.WorkspaceScoping(selection),
		transport.BearerAuth(mgr, log),
		transport.EnvelopeUnwrap(log),
	)
	client, err := api.New(cfg.BaseURL, rt, cfg.HTTPTimeout, log)
	if err != nil {
		return nil, err
	}
	mgr.Bind(client)

	return &app{
		cfg:       cfg,
		log:       log,
		stdin:     bufio.NewReader(os.Stdin),
		mgr:       mgr,
		client:    client,
		selection: selection,
		redis:     rdb,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	if command != "login" {
		a.mgr.CheckAuthenticationStatus(ctx)
	}

	switch command {
	case "login":
		return a.login(ctx)
	case "status":
		return a.status(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "logout":
		a.mgr.Logout(ctx, session.ReasonUser)
		if err := a.selection.Clear(); err != nil {
			a.log.Warn("clear workspace selection failed", "error", err)
		}
		fmt.Println("Logged out.")
		return nil
	case "logout-all":
		if err := a.mgr.LogoutAll(ctx); err != nil {
			return err
		}
		if err := a.selection.Clear(); err != nil {
			a.log.Warn("clear workspace selection failed", "error", err)
		}
		fmt.Println("All sessions revoked.")
		return nil
	case "devices":
		return a.devices(ctx)
	case "workspaces":
		return a.workspaces(ctx)
	case "use":
		if len(args) != 1 {
			return errors.New("usage: ampairs use <workspace-id>")
		}
		return a.use(ctx, args[0])
	case "members":
		return a.members(ctx)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context) error {
	mobile, err := a.prompt("Mobile number (+" + a.cfg.CountryCode + "): ")
	if err != nil {
		return err
	}

	flow := otp.NewFlow(a.log, a.mgr, a.cfg.ResendCooldown)
	if err := flow.Start(ctx, mobile, ""); err != nil {
		return err
	}
	fmt.Println("OTP sent.")

	for flow.Current().State != otp.StateVerified {
		line, err := a.prompt("Enter code (or 'resend'): ")
		if err != nil {
			return err
		}
		if line == "resend" {
			if err := flow.Resend(ctx, ""); err != nil {
				if errors.Is(err, otp.ErrCooldownActive) {
					fmt.Printf("Wait %ds before resending.\n", flow.ResendWait())
					continue
				}
				return err
			}
			fmt.Println("OTP resent.")
			continue
		}

		flow.Input(line)
		if err := flow.Submit(ctx, ""); err != nil {
			if errors.Is(err, otp.ErrIncompleteCode) {
				fmt.Println("The code has 6 digits.")
				continue
			}
			// A wrong code is worth another prompt; a terminal auth failure
			// (expired session, attempts exhausted) is not.
			if flow.Current().State == otp.StateRejected && apierrors.Recoverable(err) {
				fmt.Println("Code rejected:", err)
				flow.Retry()
				continue
			}
			return err
		}
	}

	snap := a.mgr.Current()
	if snap.User != nil {
		fmt.Println("Logged in as", snap.User.FullName)
	} else {
		fmt.Println("Logged in.")
	}
	dest := otp.ResolveDestination(otp.DestinationInput{
		User:             snap.User,
		CurrentWorkspace: a.selection.Current(),
	})
	fmt.Println("Next:", dest)
	return nil
}

func (a *app) status(ctx context.Context) error {
	snap := a.mgr.Current()
	fmt.Println("Session:", snap.Status)
	if snap.User != nil {
		fmt.Println("User:   ", snap.User.FullName)
	}
	if snap.LogoutReason == session.ReasonSessionExpired {
		fmt.Println("Your session expired. Please log in again.")
	}
	if ws := a.selection.Current(); ws != "" {
		fmt.Println("Workspace:", ws)
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			fmt.Println("Redis:   unreachable:", err)
		} else {
			fmt.Println("Redis:   ok")
		}
	}
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", user.FullName, user.Phone)
	return nil
}

func (a *app) devices(ctx context.Context) error {
	devices, err := a.client.ListDevices(ctx)
	if err != nil {
		return err
	}
	for _, d := range devices {
		marker := " "
		if d.Current {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s (%s)\n", marker, d.ID, d.DeviceName, d.Platform)
	}
	return nil
}

func (a *app) workspaces(ctx context.Context) error {
	workspaces, err := a.client.ListWorkspaces(ctx)
	if err != nil {
		return err
	}
	current := a.selection.Current()
	for _, ws := range workspaces {
		marker := " "
		if ws.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %-14s %s\n", marker, ws.ID, ws.Name)
	}
	return nil
}

func (a *app) use(ctx context.Context, workspaceID string) error {
	workspaces, err := a.client.ListWorkspaces(ctx)
	if err != nil {
		return err
	}
	for _, ws := range workspaces {
		if ws.ID == workspaceID {
			if err := a.selection.Select(workspaceID); err != nil {
				return err
			}
			fmt.Println("Active workspace:", ws.Name)
			return nil
		}
	}
	return fmt.Errorf("workspace %q not found", workspaceID)
}

func (a *app) members(ctx context.Context) error {
	if a.selection.Current() == "" {
		return errors.New("no workspace selected, run: ampairs use <workspace-id>")
	}
	members, err := a.client.ListMembers(ctx)
	if err != nil {
		return err
	}
	for _, m := range members {
		fmt.Printf("%-14s %-20s %s\n", m.ID, m.FullName, m.Role)
	}
	return nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
