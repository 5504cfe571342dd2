package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oykum/carelink-go/internal/api"
	"github.com/oykum/carelink-go/internal/auth"
	"github.com/oykum/carelink-go/internal/chat"
	"github.com/oykum/carelink-go/internal/config"
	"github.com/oykum/carelink-go/internal/logger"
	"github.com/oykum/carelink-go/internal/speech"
	"github.com/oykum/carelink-go/internal/store"
	"github.com/oykum/carelink-go/internal/tui"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "carelink",
		Short:   "Terminal client for the CareLink health assistant",
		Long:    "CareLink is a terminal client for a personal health assistant.\n\nRun without arguments to open the chat view. Use the subcommands to manage\nyour account and health profile.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCmd(),
		newSignupCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newChangePasswordCmd(),
		newProfileCmd(),
		newSessionsCmd(),
		newAskCmd(),
	)
	return root
}

// appEnv is the wiring shared by every command: configuration, the cached
// identity and an API client carrying its token.
type appEnv struct {
	cfg    *config.Config
	cache  *auth.Cache
	creds  *auth.Credentials
	client *api.Client
}

func setup() (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)

	client := api.NewClient(cfg.Server, time.Duration(cfg.Chat.StreamTimeoutSeconds)*time.Second)
	cache := auth.NewCache(config.DefaultDataDir())
	creds := cache.Load()
	if creds != nil {
		client.SetToken(creds.Token)
	}
	return &appEnv{cfg: cfg, cache: cache, creds: creds, client: client}, nil
}

// runChat opens the interactive chat view. Logs go to a file while the view
// owns the terminal.
func runChat() error {
	env, err := setup()
	if err != nil {
		return err
	}

	if path := env.cfg.Log.File; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				logger.SetOutput(f)
				defer f.Close()
			}
		}
	}

	st := store.New(env.cfg.Storage.Path)
	defer st.Close()

	userID, email := "", ""
	if env.creds != nil {
		userID, email = env.creds.UserID, env.creds.Email
	}

	ctrl := chat.New(chat.NewAPITransport(env.client), st, userID)
	voice := speech.NewCommand(env.cfg.Speech.Command, env.cfg.Speech.Args...)
	return tui.Run(ctrl, voice, email)
}
