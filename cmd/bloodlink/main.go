// Command bloodlink is the terminal client for the BloodLink platform.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"bloodlink/apiclient"
	"bloodlink/config"
	"bloodlink/dashboard"
	"bloodlink/logger"
	"bloodlink/session"

	"go.uber.org/zap"
)

const usage = `Usage: bloodlink [-server URL] <command> [flags]

Commands:
  login              sign in (-email, -password)
  register           create an account (-name -email -password -phone -role -location [-blood-type])
  logout             forget the stored session
  whoami             show the signed-in user
  dashboard          show your dashboard (-tab requests|blood-types|leaderboard for admins)
  donor toggle       flip your availability
  donor accept       accept a pending request (-id)
  recipient search   find available donors ([-blood-type] [-location])
  recipient request  file a blood request ([-donor] -blood-type -location [-urgency] [-message])
  admin export       write the admin overview to an .xlsx file (-out)
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("bloodlink", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	server := global.String("server", "", "Override backend base URL (e.g. https://api.example.com)")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if *server != "" {
		cfg.Client.BackendURL = strings.TrimRight(*server, "/")
	}

	c, err := newCLI(ctx, cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer c.close()

	err = c.dispatch(ctx, global.Args())
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		// view actions have already shown a notice
		if !c.notified(err) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
}

type cli struct {
	cfg    *config.Config
	log    *zap.Logger
	tokens session.TokenStore
	store  *session.Store
	app    *dashboard.App
	notes  *dashboard.Recorder
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer
}

func newCLI(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (*cli, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "bloodlink-cli")
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	tokens, err := session.OpenTokenStore(cfg.Client)
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(ctx, tokens, log)
	if err != nil {
		tokens.Close()
		return nil, err
	}

	notes := &dashboard.Recorder{}
	printer := dashboard.NewWriterNotifier(stderr)
	notifier := dashboard.NotifierFunc(func(n dashboard.Notice) {
		notes.Notify(n)
		printer.Notify(n)
	})
	api := apiclient.NewClient(cfg.Client.BackendURL, cfg.Client.Timeout, store, log)
	app := dashboard.NewApp(api, dashboard.Deps{
		Session:              store,
		Notifier:             notifier,
		Logger:               log,
		LogoutOnUnauthorized: cfg.Client.LogoutOnUnauthorized,
	})

	return &cli{
		cfg:    cfg,
		log:    log,
		tokens: tokens,
		store:  store,
		app:    app,
		notes:  notes,
		stdin:  bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
	}, nil
}

func (c *cli) close() {
	if err := c.tokens.Close(); err != nil {
		c.log.Warn("close token store", zap.Error(err))
	}
	_ = c.log.Sync()
}

// notified reports whether err was already shown as an error notice.
func (c *cli) notified(err error) bool {
	if errors.Is(err, dashboard.ErrViewClosed) {
		return true
	}
	for _, n := range c.notes.Notices() {
		if n.Level == dashboard.LevelError {
			return true
		}
	}
	return false
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "register":
		return c.register(ctx, rest)
	case "logout":
		return c.logout(ctx)
	case "whoami":
		return c.whoami(ctx)
	case "dashboard":
		return c.showDashboard(ctx, rest)
	case "donor", "recipient", "admin":
		if len(rest) == 0 {
			fmt.Fprintf(c.stderr, "%s: missing subcommand\n", cmd)
			return errUsage
		}
		return c.roleCommand(ctx, cmd+" "+rest[0], rest[1:])
	case "help", "-h", "--help":
		fmt.Fprint(c.stdout, usage)
		return nil
	}
	fmt.Fprintf(c.stderr, "unknown command %q\n", cmd)
	fmt.Fprint(c.stderr, usage)
	return errUsage
}

func (c *cli) roleCommand(ctx context.Context, name string, args []string) error {
	switch name {
	case "donor toggle":
		return c.donorToggle(ctx)
	case "donor accept":
		return c.donorAccept(ctx, args)
	case "recipient search":
		return c.recipientSearch(ctx, args)
	case "recipient request":
		return c.recipientRequest(ctx, args)
	case "admin export":
		return c.adminExport(ctx, args)
	}
	fmt.Fprintf(c.stderr, "unknown command %q\n", name)
	return errUsage
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// prompt reads one line from stdin after printing label.
func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.stderr, label)
	line, err := c.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
