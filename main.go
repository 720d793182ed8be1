package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	myapp "github.com/km-arc/go-twostep/app"
	"github.com/km-arc/go-twostep/framework/app"
	"github.com/km-arc/go-twostep/framework/bootstrap"
	"github.com/km-arc/go-twostep/framework/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "twostep",
	Short:         "go-twostep example server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var envFiles []string

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	serveCmd.Flags().String("addr", "", "listen address (default :APP_PORT)")
	rootCmd.AddCommand(serveCmd, routesCmd, checkCmd)
}

// twostep serve: compose the application and serve HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		defer func() { _ = a.Log.Sync() }()

		addr, _ := cmd.Flags().GetString("addr")
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return a.Run(ctx, addr)
	},
}

// twostep routes: print every module route.
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes of every module",
	RunE: func(*cobra.Command, []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		if err := a.Boot(); err != nil {
			return err
		}
		defer a.Bootstrapper.Dispose()

		eng, err := a.Bootstrapper.GetEngine()
		if err != nil {
			return err
		}
		routes, err := eng.Routes()
		if err != nil {
			return err
		}
		if len(routes) == 0 {
			fmt.Println("No routes registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tMODULE")
		fmt.Fprintln(w, "------\t----\t------")
		for _, r := range routes {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Path, r.Module)
		}
		return w.Flush()
	},
}

// twostep check: compose the application and exit.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compose the application and report problems",
	RunE: func(*cobra.Command, []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		if err := a.Boot(); err != nil {
			return err
		}
		defer a.Bootstrapper.Dispose()

		if _, err := a.Bootstrapper.GetEngine(); err != nil {
			return err
		}
		if _, err := a.Bootstrapper.GetEnvironment(); err != nil {
			return err
		}
		fmt.Printf("ok: %d modules composed (env %s)\n", len(a.Bootstrapper.Modules()), a.Config.App.Env)
		return nil
	},
}

func newApplication() (*app.Application, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, log, bootstrap.WithCustomizer(myapp.Customizer{Debug: cfg.App.Debug}))
}

// newLogger builds a development logger locally and a JSON one in
// production, at LOG_LEVEL.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build(zap.Fields(zap.String("app", cfg.App.Name)))
}
