package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MoXuan9X/GoodSleep/pkg/bus"
	"github.com/MoXuan9X/GoodSleep/pkg/channels"
	"github.com/MoXuan9X/GoodSleep/pkg/config"
	"github.com/MoXuan9X/GoodSleep/pkg/logger"
	"github.com/MoXuan9X/GoodSleep/pkg/providers"
	"github.com/MoXuan9X/GoodSleep/pkg/reflection"
	"github.com/MoXuan9X/GoodSleep/pkg/reminder"
	"github.com/MoXuan9X/GoodSleep/pkg/server"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
	"github.com/MoXuan9X/GoodSleep/pkg/store"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   appName,
		Short: "Guided bedtime reflection assistant (小安)",
		Long: strings.TrimSpace(`goodsleep runs 小安, a bedtime reflection companion that helps you
sort tonight's worries, wins, and gratitude before sleep.

Chat locally in the terminal, serve the web frontend over HTTP, or run the
Discord gateway with a scheduled bedtime reminder.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newOnboardCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newResetCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".goodsleep", "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// app bundles the wired session stack shared by chat, serve, and reset.
type app struct {
	cfg        *config.Config
	store      store.SessionStore
	controller *reflection.Controller
}

func buildRuntime(ephemeral bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := providers.ValidateProviderConfig(cfg); err != nil {
		return nil, err
	}

	provider, err := providers.CreateProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	var st store.SessionStore
	if ephemeral {
		st = store.NewMemoryStore()
	} else {
		st, err = store.NewSQLiteStore(cfg.StoragePath())
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}

	replier := reflection.NewProviderReplier(provider, reflection.ReplierOptions{
		Model:       cfg.Assistant.Model,
		MaxTokens:   cfg.Assistant.MaxTokens,
		Temperature: cfg.Assistant.Temperature,
		TopP:        cfg.Assistant.TopP,
	})
	classifier := reflection.NewProviderClassifier(provider, cfg.Assistant.Model)

	timeout := time.Duration(cfg.Assistant.RequestTimeoutSeconds) * time.Second
	orch := reflection.NewOrchestrator(st, replier, classifier, timeout)

	return &app{
		cfg:        cfg,
		store:      st,
		controller: reflection.NewController(st, orch),
	}, nil
}

func (rt *app) Close() {
	if err := rt.store.Close(); err != nil {
		logger.WarnCF("cli", "Closing session store failed", map[string]interface{}{"error": err.Error()})
	}
}

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.goodsleep configuration",
		Example: "  goodsleep onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return onboard(cmd)
		},
	}
}

func onboard(cmd *cobra.Command) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		cmd.Printf("Config already exists: %s\n", configPath)
		cmd.Print("Overwrite? (y/n): ")
		var response string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
			cmd.Println("Aborted.")
			return nil
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("%s is ready!\n", appName)
	cmd.Println("\nNext steps:")
	cmd.Println("  1. Add your SiliconFlow API key to", configPath)
	cmd.Println("     Get one at: https://cloud.siliconflow.cn")
	cmd.Println("  2. Chat locally: goodsleep chat")
	cmd.Println("  3. Serve the web app: goodsleep serve")
	cmd.Println("  4. Check readiness: goodsleep status")
	return nil
}

func newChatCommand() *cobra.Command {
	var (
		message   string
		debug     bool
		ephemeral bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to 小安 in the terminal",
		Long:  "Run an interactive bedtime reflection session, or send a single message with --message.",
		Example: strings.Join([]string{
			"  goodsleep chat",
			"  goodsleep chat --message \"今天有点睡不着\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(logger.DEBUG)
			}
			return chat(message, ephemeral)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot message to send")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory only, without touching the saved slot")
	return cmd
}

func chat(message string, ephemeral bool) error {
	rt, err := buildRuntime(ephemeral)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	state, err := rt.controller.Initialize(ctx)
	if err != nil {
		return err
	}

	if strings.TrimSpace(message) != "" {
		next, err := rt.controller.RunTurn(ctx, message)
		if err != nil {
			return fmt.Errorf("%s", reflection.TurnFailureNotice)
		}
		fmt.Printf("\n小安: %s\n", lastAssistantReply(next))
		return nil
	}

	fmt.Printf("小安: %s\n", lastAssistantReply(state))
	return interactiveChat(rt)
}

func lastAssistantReply(st session.State) string {
	for i := len(st.History) - 1; i >= 0; i-- {
		if st.History[i].Role == session.RoleAssistant {
			return st.History[i].Content
		}
	}
	return reflection.FallbackReply
}

func interactiveChat(rt *app) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     filepath.Join(os.TempDir(), ".goodsleep_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	ctx := context.Background()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\n晚安！")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			fmt.Println("晚安！")
			return nil
		}

		if input == "/reset" || input == "重新开始" {
			fresh, err := rt.controller.Reset(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("\n小安: %s\n\n", lastAssistantReply(fresh))
			continue
		}

		next, err := rt.controller.RunTurn(ctx, input)
		if err != nil {
			fmt.Printf("\n小安: %s\n\n", reflection.TurnFailureNotice)
			continue
		}

		fmt.Printf("\n小安: %s\n\n", lastAssistantReply(next))
	}
}

func newServeCommand() *cobra.Command {
	var (
		debug       bool
		withDiscord bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API, channel adapters, and bedtime reminder",
		Example: "  goodsleep serve --debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(logger.DEBUG)
			}
			return serve(withDiscord)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVar(&withDiscord, "with-discord", false, "Enable the Discord channel regardless of config")
	return cmd
}

func serve(withDiscord bool) error {
	rt, err := buildRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.cfg
	if withDiscord {
		cfg.Channels.Discord.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := rt.controller.Initialize(ctx); err != nil {
		return err
	}

	var transcriber *providers.Transcriber
	if t, err := providers.NewTranscriber(cfg); err != nil {
		logger.WarnCF("cli", "Transcription disabled", map[string]interface{}{"error": err.Error()})
	} else {
		transcriber = t
	}

	msgBus := bus.NewMessageBus()
	assistantLoop := reflection.NewAssistantLoop(msgBus, rt.controller)

	channelManager, err := channels.NewManager(cfg, msgBus)
	if err != nil {
		return fmt.Errorf("create channel manager: %w", err)
	}
	if err := channelManager.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	defer func() {
		if err := channelManager.StopAll(context.Background()); err != nil {
			logger.WarnCF("cli", "Stopping channels failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	var reminderService *reminder.Service
	if cfg.Reminder.Enabled {
		reminderService, err = reminder.NewService(cfg.Reminder, msgBus)
		if err != nil {
			return fmt.Errorf("configure reminder: %w", err)
		}
		if err := reminderService.Start(ctx); err != nil {
			return fmt.Errorf("start reminder: %w", err)
		}
		defer reminderService.Stop()
	}

	httpServer := server.New(cfg.Server, rt.controller, transcriber, cfg.Transcribe.Model)

	fmt.Printf("✓ %s serving on %s:%d\n", appName, cfg.Server.Host, cfg.Server.Port)
	if enabled := channelManager.EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	}
	if reminderService != nil {
		fmt.Printf("✓ Bedtime reminder scheduled: %s\n", cfg.Reminder.Cron)
	}
	fmt.Println("Press Ctrl+C to stop")

	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return assistantLoop.Run(runCtx) })
	g.Go(func() error { return httpServer.Start(runCtx) })

	err = g.Wait()
	msgBus.Close()
	logger.Sync()
	if err != nil && err != context.Canceled {
		return err
	}
	fmt.Println("\n✓ Stopped")
	return nil
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reset",
		Short:   "Discard the saved session and start fresh",
		Example: "  goodsleep reset",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.controller.Reset(context.Background()); err != nil {
				return err
			}
			cmd.Println("Session cleared. 小安 will greet you next time.")
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration and runtime readiness",
		Example: "  goodsleep status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return status(cmd)
		},
	}
}

func status(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	configPath := getConfigPath()

	cmd.Printf("%s Status\n", appName)
	cmd.Printf("Version: %s\n", formatVersion())
	cmd.Println()

	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}

	_, cfgErr := os.Stat(configPath)
	cmd.Println("Config:", configPath, mark(cfgErr == nil))

	storagePath := cfg.StoragePath()
	_, dbErr := os.Stat(storagePath)
	if dbErr == nil {
		cmd.Println("Session DB:", storagePath, "✓")
	} else {
		cmd.Println("Session DB:", storagePath, "not initialized")
	}

	cmd.Printf("Provider: %s\n", providers.ActiveProviderName(cfg))
	cmd.Printf("Model: %s\n", cfg.Assistant.Model)

	apiReady := providers.ValidateProviderConfig(cfg) == nil
	discordReady := strings.TrimSpace(cfg.Channels.Discord.Token) != ""

	cmd.Println("API key:", mark(apiReady))
	cmd.Println("Discord token:", mark(discordReady))
	cmd.Println("Chat ready:", mark(apiReady))
	cmd.Println("Gateway ready:", mark(apiReady && discordReady))
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  goodsleep version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
