package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"tcpchat/internal/app"
	"tcpchat/internal/config"
	"tcpchat/internal/logger"
	"tcpchat/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("TCPCHAT_CONFIG_FILE"), "path to a JSON config file")
	serve := flag.Bool("serve", false, "host a chat server without the terminal UI")
	name := flag.String("name", "", "display name (overrides config)")
	password := flag.String("password", "", "session password (overrides config)")
	host := flag.String("host", "", "server host to connect to (overrides config)")
	port := flag.Int("port", 0, "server port (overrides config)")
	flag.Parse()

	cfg := config.LoadWithPrecedence(*configPath)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Chat.Name = *name
		case "password":
			cfg.Chat.Password = *password
		case "host":
			cfg.Chat.Host = *host
		case "port":
			cfg.Chat.Port = *port
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if *serve {
		return runServe(cfg)
	}
	return runTUI(cfg)
}

// runTUI keeps log output away from the terminal the UI draws on: logs go to
// the configured file, or nowhere.
func runTUI(cfg *config.Config) error {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Log.File, err)
		}
		defer f.Close()
		logger.Configure(cfg.Log.Level, f)
	} else {
		logger.Discard()
	}
	defer logger.Sync()

	return tui.Run(cfg)
}

// runServe hosts a server headlessly. Display lines go to stdout, stdin lines
// are sent to the connected clients, and SIGINT/SIGTERM shut the server down.
func runServe(cfg *config.Config) error {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Log.File, err)
		}
		defer f.Close()
		logger.Configure(cfg.Log.Level, f)
	} else {
		logger.Configure(cfg.Log.Level, os.Stderr)
	}
	defer logger.Sync()

	controller := app.NewController(func(text string) {
		fmt.Println(text)
	})
	controller.Host(cfg.Chat.Name, cfg.Chat.Password, strconv.Itoa(cfg.Chat.Port))
	if !controller.Active() {
		return fmt.Errorf("failed to host server on port %d", cfg.Chat.Port)
	}

	// Stdin lets the operator chat from the hosting terminal. The goroutine
	// leaks on shutdown because Scan blocks; the process is exiting anyway.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			controller.SendInput(scanner.Text())
		}
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalCh
	logger.Infof("received signal %v, shutting down", sig)

	controller.CloseConnection()
	return nil
}
