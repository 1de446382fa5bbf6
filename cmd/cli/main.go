// Command cli plays PATABOL in the terminal against an in-process service.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/okian/patabol/internal/adapters/notify"
	service "github.com/okian/patabol/internal/app"
	"github.com/okian/patabol/internal/config"
	"github.com/okian/patabol/pkg/logger"
)

const (
	userID = "cli_user"
	promptText = "> "
)

// console prints replies and notifications. Notifications for anyone other
// than the local user are tagged so the console can stand in for them.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

func (c *console) prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, promptText)
}

func (c *console) Notify(_ context.Context, recipients []string, msg string) error {
	for _, to := range recipients {
		if to == userID {
			c.print(msg)
			continue
		}
		c.print("[Para otro jugador] " + msg)
	}
	return nil
}

func (c *console) Publish(context.Context, string, notify.FeedItem) error { return nil }

func main() {
	// Logs go to stderr so they do not interleave with the game.
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	level := cfg.LogLevel
	if os.Getenv("PATABOL_LOG_LEVEL") == "" {
		level = "warn"
	}
	_ = logger.SetLevelString(level)

	out := &console{out: os.Stdout}
	if err := repl(ctx, cfg, os.Stdin, out); err != nil {
		out.print("error: " + err.Error())
		os.Exit(1)
	}
}

// repl reads commands line by line until EOF, "salir" or ctx ends.
func repl(ctx context.Context, cfg *config.Config, in io.Reader, out *console) error {
	opts := append(service.ConfigOptions(cfg),
		service.WithNotifier(out),
		service.WithLogger(logger.Get().Named("cli")),
	)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	out.print("⚽ PATABOL. Escribí /ayuda para ver los comandos, 'salir' para terminar.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		out.prompt()
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "salir"), strings.EqualFold(line, "exit"):
			return nil
		}

		res, err := svc.Handle(ctx, service.Command{UserID: userID, Text: line, MessageID: uuid.NewString()})
		for _, msg := range res.Messages {
			out.print(msg)
		}
		if err != nil && len(res.Messages) == 0 {
			out.print("❌ " + err.Error())
		}
	}
}
