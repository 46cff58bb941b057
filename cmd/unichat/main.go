// Command unichat is a small terminal client for exercising the library
// against live vendors: single-shot chat, streaming output, model
// listing, and an OpenAI-family tool-calling demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/omnillm/unichat/internal/config"
	"github.com/omnillm/unichat/internal/tokens"
	"github.com/omnillm/unichat/pkg/unichat"
)

const maxToolRounds = 4

func main() {
	_ = godotenv.Load()

	var (
		modelFlag  = flag.String("model", "openai/gpt-4o-mini", "model as kind/name, e.g. anthropic/claude-3-5-sonnet-20241022")
		system     = flag.String("system", "", "system prompt")
		stream     = flag.Bool("stream", false, "stream the answer as it arrives")
		withTools  = flag.Bool("tools", false, "register the weather demo tool and run the tool-call loop")
		listModels = flag.Bool("list", false, "list known models for the vendor kind and exit")
		configPath = flag.String("config", "", "optional YAML config file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	model, err := parseModel(*modelFlag)
	if err != nil {
		logger.Error("bad -model", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts := append(cfg.ClientOptions(), unichat.WithLogger(logger))
	client, err := unichat.New(opts...)
	if err != nil {
		logger.Error("create client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if *listModels {
		names, err := client.ModelNames(ctx, model.Kind)
		if err != nil {
			logger.Error("list models", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	prompt := strings.Join(flag.Args(), " ")
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: unichat [flags] <prompt>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	req := unichat.NewChatRequest()
	if *system != "" {
		req.AppendMessage(unichat.System(*system))
	}
	req.AppendMessage(unichat.User(prompt))

	var registry *unichat.ToolRegistry
	if *withTools {
		registry, err = weatherRegistry()
		if err != nil {
			logger.Error("register tools", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, schema := range registry.Schemas() {
			req.AppendTool(schema)
		}
	}

	logEstimate(logger, model, req)

	chatOpts := &unichat.ChatOptions{CaptureUsage: true}

	if *stream {
		if err := runStream(ctx, client, model, req, chatOpts); err != nil {
			logger.Error("stream failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := runChat(ctx, logger, client, model, req, chatOpts, registry); err != nil {
		logger.Error("chat failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseModel(s string) (unichat.ModelRef, error) {
	kindName, modelName, ok := strings.Cut(s, "/")
	if !ok {
		return unichat.ModelRef{}, fmt.Errorf("model %q must be kind/name", s)
	}
	kind, err := unichat.ParseKind(kindName)
	if err != nil {
		return unichat.ModelRef{}, err
	}
	return unichat.ModelRef{Kind: kind, Name: modelName}, nil
}

func logEstimate(logger *slog.Logger, model unichat.ModelRef, req *unichat.ChatRequest) {
	reg := tokens.NewRegistry()
	reg.Register(tokens.NewOpenAICounter())
	count, err := reg.CountRequest(model.Name, req)
	if err != nil {
		logger.Debug("token estimate unavailable", slog.String("error", err.Error()))
		return
	}
	logger.Debug("input tokens",
		slog.Int("count", count.InputTokens),
		slog.Bool("estimated", count.Estimated),
	)
}

// runChat performs the request and, when a registry is present, feeds
// tool results back until the model answers with text.
func runChat(ctx context.Context, logger *slog.Logger, client *unichat.Client, model unichat.ModelRef, req *unichat.ChatRequest, opts *unichat.ChatOptions, registry *unichat.ToolRegistry) error {
	for round := 0; ; round++ {
		resp, err := client.Chat(ctx, model, req, opts)
		if err != nil {
			return err
		}

		if text, ok := resp.ContentText(); ok {
			fmt.Println(text)
			printUsage(&resp.Usage)
			return nil
		}

		calls, ok := resp.ToolCalls()
		if !ok {
			return fmt.Errorf("response had neither content nor tool calls")
		}
		if registry == nil {
			return fmt.Errorf("model requested tool calls but no tools are registered")
		}
		if round >= maxToolRounds {
			return fmt.Errorf("model did not settle after %d tool rounds", maxToolRounds)
		}

		req.AppendMessage(unichat.AssistantToolCalls(calls))
		for _, call := range calls {
			result := registry.Call(call)
			logger.Info("tool call",
				slog.String("name", call.Function.Name),
				slog.String("result", result),
			)
			req.AppendMessage(unichat.ToolResponse(call.ToolCallID, call.Function.Name, result))
		}
	}
}

func runStream(ctx context.Context, client *unichat.Client, model unichat.ModelRef, req *unichat.ChatRequest, opts *unichat.ChatOptions) error {
	streamResp, err := client.ChatStream(ctx, model, req, opts)
	if err != nil {
		return err
	}

	for ev := range streamResp.Events {
		switch ev.Kind {
		case unichat.StreamChunk:
			fmt.Print(ev.Content)
		case unichat.StreamEnd:
			fmt.Println()
			printUsage(ev.Usage)
		}
		if ev.Err != nil {
			return ev.Err
		}
	}
	return nil
}

func printUsage(usage *unichat.MetaUsage) {
	if usage == nil || usage.TotalTokens == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "tokens: %d in, %d out, %d total\n",
		derefInt(usage.InputTokens), derefInt(usage.OutputTokens), *usage.TotalTokens)
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

type weatherArgs struct {
	Location string `json:"location"`
	Unit     string `json:"unit"`
}

func weatherRegistry() (*unichat.ToolRegistry, error) {
	registry := unichat.NewToolRegistry()

	weather, err := unichat.NewTool(
		"get_current_weather",
		"Get the current weather for a location",
		[]unichat.ToolField{
			{Name: "location", Type: jsonschema.String, Description: "City and country, e.g. Paris, France", Required: true},
			{Name: "unit", Type: jsonschema.String, Description: "Temperature unit", Enum: []string{"celsius", "fahrenheit"}},
		},
		func(args weatherArgs) (string, error) {
			unit := args.Unit
			if unit == "" {
				unit = "celsius"
			}
			// Canned data, the point is the round trip.
			if unit == "fahrenheit" {
				return fmt.Sprintf("The weather in %s is 72°F and sunny.", args.Location), nil
			}
			return fmt.Sprintf("The weather in %s is 22°C and sunny.", args.Location), nil
		},
	)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(weather); err != nil {
		return nil, err
	}
	return registry, nil
}
