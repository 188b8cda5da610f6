// Package main provides an interactive Grok client for testing the library.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	grokit "github.com/roelfdiedericks/grokit-go"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	model := flag.String("model", "", "Model to use (default: grok-2-mini)")
	system := flag.String("system", "", "Server-side system prompt name")
	stream := flag.Bool("stream", true, "Stream responses")
	debug := flag.Bool("debug", false, "Log every stream line to stderr")
	flag.Parse()

	cfg, err := grokit.LoadConfig(nil)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *debug {
		cfg.Debug = true
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).With().Timestamp().Logger()
		cfg.Logger = &logger
	}
	if *model != "" {
		cfg.DefaultModel = grokit.ParseModel(*model)
	}

	client, err := grokit.New(cfg)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	return runInteractive(client, *system, *stream)
}

// session is the conversation state threaded between turns.
type session struct {
	model          grokit.Model
	systemPrompt   string
	conversationID string
	history        *grokit.History
	pending        []string
	edit           bool
}

func runInteractive(client *grokit.Client, systemPrompt string, stream bool) error {
	s := &session{
		model:        client.DefaultModel(),
		systemPrompt: systemPrompt,
		history:      grokit.NewHistory(),
	}

	fmt.Println("=== Grok Interactive Chat ===")
	fmt.Printf("Model: %s\n", s.model)
	fmt.Printf("Streaming: %v\n", stream)
	fmt.Println("Commands: /help, /model, /attach, /edit, /image, /clear, /quit")
	fmt.Println("---")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleCommand(client, s, input, &stream); quit {
				return nil
			}
			continue
		}

		req := grokit.NewGenerateRequest(input).
			WithModel(s.model).
			WithSystemPromptName(s.systemPrompt).
			WithConversationID(s.conversationID).
			WithHistory(s.history).
			WithAttachments(s.pending...).
			WithImageEdit(s.edit)

		// Turns append the prompt even when they fail; keep a copy to roll back to.
		snapshot := s.history.Clone()

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		fmt.Print("\nGrok: ")
		var res *grokit.TurnResult
		if stream {
			res, err = streamTurn(ctx, client, req)
		} else {
			res, err = client.Generate(ctx, req)
			if err == nil {
				fmt.Print(res.ResponseText)
			}
		}
		cancel()

		if err != nil {
			fmt.Printf("\nError: %v\n", err)
			var gErr *grokit.Error
			if errors.As(err, &gErr) && gErr.Body != "" {
				fmt.Printf("Server said: %s\n", gErr.Body)
			}
			s.history = snapshot
			continue
		}

		fmt.Println()
		for _, url := range res.Attachments {
			fmt.Printf("[image] %s\n", url)
		}
		if res.Limited {
			fmt.Println("[limited] the service reported a rate or quota limit")
		}
		s.conversationID = res.ConversationID
		s.history = res.History
		s.pending = nil
		s.edit = false
	}
}

func streamTurn(ctx context.Context, client *grokit.Client, req *grokit.GenerateRequest) (*grokit.TurnResult, error) {
	stream, err := client.StreamTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if err == io.EOF {
			return stream.Result(), nil
		}
		if err != nil {
			return nil, err
		}
		if ev.Kind == grokit.EventContent {
			fmt.Print(ev.Content)
		}
	}
}

// handleCommand runs a slash command and reports whether to quit.
func handleCommand(client *grokit.Client, s *session, input string, stream *bool) bool {
	switch {
	case input == "/quit" || input == "/exit" || input == "/q":
		fmt.Println("Goodbye!")
		return true

	case input == "/help" || input == "/h":
		printHelp()

	case input == "/clear" || input == "/c":
		s.history = grokit.NewHistory()
		s.conversationID = ""
		s.pending = nil
		s.edit = false
		fmt.Println("Conversation cleared.")

	case input == "/stream" || input == "/s":
		*stream = !*stream
		fmt.Printf("Streaming: %v\n", *stream)

	case input == "/info" || input == "/i":
		fmt.Printf("Model: %s\n", s.model)
		fmt.Printf("System prompt: %q\n", s.systemPrompt)
		fmt.Printf("Conversation: %s\n", s.conversationID)
		fmt.Printf("History entries: %d\n", s.history.Len())
		fmt.Printf("Pending attachments: %d (edit: %v)\n", len(s.pending), s.edit)

	case input == "/model" || input == "/m":
		fmt.Printf("Current model: %s\n", s.model)
		for _, m := range grokit.KnownModels() {
			fmt.Printf("  %s\n", m)
		}

	case strings.HasPrefix(input, "/model "):
		s.model = grokit.ParseModel(strings.TrimPrefix(input, "/model "))
		fmt.Printf("Model changed to: %s\n", s.model)

	case strings.HasPrefix(input, "/attach "):
		s.pending = append(s.pending, strings.TrimSpace(strings.TrimPrefix(input, "/attach ")))
		fmt.Printf("%d attachment(s) will be sent with the next message.\n", len(s.pending))

	case strings.HasPrefix(input, "/edit "):
		s.pending = []string{strings.TrimSpace(strings.TrimPrefix(input, "/edit "))}
		s.edit = true
		fmt.Println("The next message will edit this image.")

	case strings.HasPrefix(input, "/image "):
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		url, err := client.ImageURL(ctx, strings.TrimPrefix(input, "/image "))
		cancel()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("[image] %s\n", url)

	default:
		fmt.Println("Unknown command. Type /help for available commands.")
	}
	return false
}

func printHelp() {
	fmt.Println(`Commands:
  /help, /h          Show this help
  /quit, /q          Exit
  /clear, /c         Start a new conversation
  /stream, /s        Toggle streaming output
  /info, /i          Show session state
  /model, /m         Show models; /model <id> switches
  /attach <url>      Attach an image to the next message
  /edit <url>        Edit an image with the next message
  /image <prompt>    Generate an image in a fresh conversation`)
}
