// Command triage-cli runs messages through the configured triage pipeline
// from a terminal, without Twilio. Useful for checking provider keys and
// prompts before pointing a WhatsApp number at the server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/whatsapp-triage/internal/app/bootstrap"
	appconfig "github.com/wolfman30/whatsapp-triage/internal/config"
	"github.com/wolfman30/whatsapp-triage/internal/conversation"
	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	sender := flag.String("sender", "whatsapp:+910000000000", "sender id used as the session key")
	media := flag.String("media", "", "media URL of a voice note to transcribe before the text messages")
	mediaType := flag.String("media-type", "audio/ogg", "content type of -media")
	flag.Parse()

	cfg := appconfig.Load()
	cfg.SessionStore = "memory"
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var input io.Reader = os.Stdin
	if flag.NArg() > 0 {
		input = strings.NewReader(strings.Join(flag.Args(), "\n"))
	}
	if err := run(ctx, cfg, logger, *sender, *media, *mediaType, input, os.Stdout); err != nil {
		logger.Error("triage-cli failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, sender, media, mediaType string, in io.Reader, out io.Writer) error {
	rt, err := bootstrap.BuildTriageService(ctx, cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("build triage service: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("failed to release clients", "error", err)
		}
	}()

	if media != "" {
		printReply(out, rt.Service.Handle(ctx, conversation.Inbound{
			Sender:           sender,
			MediaURL:         media,
			MediaContentType: mediaType,
			NumMedia:         1,
		}))
	}

	if err := converse(ctx, rt.Service, sender, in, out); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

type triager interface {
	Handle(ctx context.Context, in conversation.Inbound) conversation.Reply
}

// converse sends each input line as one message.
func converse(ctx context.Context, svc triager, sender string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		start := time.Now()
		reply := svc.Handle(ctx, conversation.Inbound{Sender: sender, Body: line})
		printReply(out, reply)
		fmt.Fprintf(out, "    (%v)\n\n", time.Since(start).Round(time.Millisecond))
	}
	return scanner.Err()
}

func printReply(out io.Writer, reply conversation.Reply) {
	fmt.Fprintf(out, "[%s/%s]\n%s\n", reply.Path, reply.Language, reply.Body)
}
