package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/impertio/talkbridge/internal/config"
	"github.com/impertio/talkbridge/internal/deck"
	"github.com/impertio/talkbridge/internal/dispatch"
	"github.com/impertio/talkbridge/internal/gateway"
	"github.com/impertio/talkbridge/internal/history"
	"github.com/impertio/talkbridge/internal/hooks"
	"github.com/impertio/talkbridge/internal/invoker"
	"github.com/impertio/talkbridge/internal/locks"
	"github.com/impertio/talkbridge/internal/logging"
	"github.com/impertio/talkbridge/internal/store"
	"github.com/impertio/talkbridge/internal/talk"
	"github.com/impertio/talkbridge/internal/transcribe"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			// Unset flags defer to the config file.
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			style := logStyle
			if style == "" {
				style = cfg.Logging.Style
			}
			log = logging.New(nil, level, style)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			hookMgr := hooks.NewManager(log)
			messenger := talk.NewClient(cfg.Nextcloud.BaseURL, log)
			verifier := talk.NewVerifier(time.Duration(cfg.Server.SignatureWindowSeconds) * time.Second)

			var (
				conversations history.Store
				registry      dispatch.TaskRegistry
				facts         dispatch.FactKeeper
			)
			if cfg.Store.Backend == "sqlite" {
				dbPath := paths.DatabasePath(&cfg)
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()
				conversations = store.NewConversationStore(db, cfg.Session.HistoryCap)
				registry = store.NewTaskBotStore(db)
				facts = store.NewFactStore(db)
				log.Info().Str("path", dbPath).Msg("using SQLite store")
			} else {
				conversations = history.NewMemoryStore(cfg.Session.HistoryCap)
				log.Info().Msg("using in-memory store; tasks and facts are disabled")
			}

			var transcriber transcribe.Transcriber
			if cfg.Transcribe.Enabled {
				transcriber = transcribe.NewWhisper(cfg.Transcribe, log)
				log.Info().Str("model", cfg.Transcribe.Model).Msg("voice transcription enabled")
			}

			d := dispatch.New(dispatch.Options{
				BaseURL:     cfg.Nextcloud.BaseURL,
				Profiles:    cfg.Bots,
				Verifier:    verifier,
				Messenger:   messenger,
				History:     conversations,
				Locks:       locks.NewManager(time.Duration(cfg.Session.LockWaitSeconds) * time.Second),
				Invoker:     invoker.NewCLI(cfg.Invoker, log),
				Boards:      deck.NewClient(cfg.Nextcloud.BaseURL, log),
				Registry:    registry,
				Facts:       facts,
				Transcriber: transcriber,
				Hooks:       hookMgr,
				Log:         log,
			})

			log.Info().
				Int("bots", len(cfg.Bots)).
				Str("nextcloud", cfg.Nextcloud.BaseURL).
				Msg("talkbridge starting")

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg.Server, d, hookMgr, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
