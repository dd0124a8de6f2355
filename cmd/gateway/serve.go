package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/voxhire/gateway/internal/archive"
	"github.com/voxhire/gateway/internal/evaluation"
	"github.com/voxhire/gateway/internal/interview"
	"github.com/voxhire/gateway/internal/llm"
	"github.com/voxhire/gateway/internal/logger"
	"github.com/voxhire/gateway/internal/rooms"
	"github.com/voxhire/gateway/internal/secrets"
	"github.com/voxhire/gateway/internal/templates"
	"github.com/voxhire/gateway/internal/voice"
	"github.com/voxhire/gateway/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview gateway server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen-addr", "l", "", "address to listen on")
	viper.BindPFlag("listen-addr", serveCmd.Flags().Lookup("listen-addr"))
}

func serve() {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("logging.json"), viper.GetBool("logging.debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer zlog.Sync()

	cfg, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting the gateway", zap.String("version", version))

	registry, err := templates.LoadDir(cfg.TemplatesDir)
	if err != nil {
		zlog.Fatal("loading interview templates", zap.Error(err))
	}
	if registry.Len() == 0 {
		zlog.Fatal("no interview templates found", zap.String("dir", cfg.TemplatesDir))
	}
	zlog.Info("templates loaded", zap.Int("count", registry.Len()), zap.String("dir", cfg.TemplatesDir))

	chatRouter := buildChatRouter(ctx, cfg, zlog)

	analyzer := interview.NewAnalyzer(
		chatRouter.Bind(cfg.LLM.Engine, "classify"),
		interview.AnalyzerConfig{
			MinAnswerWords: cfg.Interview.MinAnswerWords,
			HistoryWindow:  cfg.Interview.HistoryWindow,
			Timeout:        cfg.LLM.TimeoutClassify,
		},
		zlog,
	)
	writer, err := interview.NewWriter(
		chatRouter.Bind(cfg.LLM.Engine, "generate"),
		interview.WriterConfig{Timeout: cfg.LLM.TimeoutGenerate},
		zlog,
	)
	if err != nil {
		zlog.Fatal("building the transition writer", zap.Error(err))
	}
	policy := interview.NewPolicy(interview.PolicyConfig{
		MaxFollowUps:     cfg.Interview.MaxFollowUps,
		MinAnswerWords:   cfg.Interview.MinAnswerWords,
		ProbeProbability: cfg.Interview.ProbeProbability,
	}, nil)

	engine := interview.NewEngine(
		interview.NewMemoryStore(),
		analyzer,
		policy,
		writer,
		interview.EngineConfig{HistoryWindow: cfg.Interview.HistoryWindow},
		zlog,
	)

	var archiveStore *archive.Store
	var recorder *archive.Recorder
	if cfg.ArchiveDSN != "" {
		archiveStore, err = archive.Open(cfg.ArchiveDSN)
		if err != nil {
			zlog.Fatal("opening the archive database", zap.Error(err))
		}
		recorder = archive.NewRecorder(archiveStore, zlog)
		zlog.Info("archive enabled")
	}

	var evaluator *evaluation.Evaluator
	if cfg.Evaluation.Enabled {
		evaluator = evaluation.New(
			chatRouter.Bind(cfg.LLM.Engine, "evaluate"),
			evaluation.Config{Timeout: cfg.Evaluation.Timeout},
			zlog,
		)
	}

	handler := ws.NewHandler(ws.HandlerConfig{
		Engine:        engine,
		Templates:     registry,
		Voice:         buildVoiceRouter(cfg, zlog),
		Evaluator:     evaluator,
		Recorder:      recorder,
		Rooms:         buildRoomManager(cfg, zlog),
		MaxConcurrent: cfg.MaxConcurrent,
		Logger:        zlog,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		engine:       engine,
		templates:    registry,
		archiveStore: archiveStore,
		wsHandler:    handler,
		log:          zlog,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		zlog.Info("shutting down", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zlog.Info("gateway listening",
		zap.String("addr", cfg.ListenAddr),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
	)

	// Drain the recorder before exiting even when the listener fails,
	// so queued archive writes are not lost.
	serveErr := srv.ListenAndServe()
	if serveErr == http.ErrServerClosed {
		serveErr = nil
	}
	if serveErr != nil {
		zlog.Error("server failed", zap.Error(serveErr))
	}

	recorder.Close()
	if archiveStore != nil {
		archiveStore.Close()
	}
	zlog.Info("gateway stopped")
	if serveErr != nil {
		os.Exit(1)
	}
}

// buildChatRouter wires the configured model backends. Backends with
// missing credentials are skipped with a warning so a partial setup
// still boots.
func buildChatRouter(ctx context.Context, cfg *Config, zlog *zap.Logger) *llm.ChatRouter {
	backends := map[string]llm.ChatClient{}

	if cfg.LLM.OpenAI != nil {
		apiKey, err := secrets.Load(secrets.Source{Name: "openai api key", File: cfg.LLM.OpenAI.APIKeyFile})
		if err != nil {
			zlog.Warn("skipping openai backend", zap.Error(err))
		} else {
			backends["openai"] = llm.NewOpenAIClient(apiKey, cfg.LLM.OpenAI.BaseURL, cfg.LLM.Model, cfg.LLM.MaxTokens)
		}
	}

	if cfg.LLM.Gemini != nil {
		apiKey, err := secrets.Load(secrets.Source{Name: "gemini api key", File: cfg.LLM.Gemini.APIKeyFile})
		if err != nil {
			zlog.Warn("skipping gemini backend", zap.Error(err))
		} else {
			client, gerr := llm.NewGeminiClient(ctx, apiKey, cfg.LLM.Model, cfg.LLM.MaxTokens)
			if gerr != nil {
				zlog.Warn("skipping gemini backend", zap.Error(gerr))
			} else {
				backends["gemini"] = client
			}
		}
	}

	if cfg.LLM.Ollama != nil && cfg.LLM.Ollama.URL != "" {
		backends["ollama"] = llm.NewOllamaClient(cfg.LLM.Ollama.URL, cfg.LLM.Ollama.Model, cfg.LLM.MaxTokens, cfg.LLM.PoolSize, cfg.LLM.HTTPTimeout)
	}

	if len(backends) == 0 {
		zlog.Fatal("no llm backend available",
			zap.String("hint", "configure llm.openai.api-key-file, llm.gemini.api-key-file, or llm.ollama.url"),
		)
	}
	if _, ok := backends[cfg.LLM.Engine]; !ok {
		zlog.Warn("configured llm engine unavailable, using fallback",
			zap.String("engine", cfg.LLM.Engine),
		)
	}

	return llm.NewChatRouter(backends, cfg.LLM.Engine)
}

func buildVoiceRouter(cfg *Config, zlog *zap.Logger) *voice.Router {
	if !cfg.Voice.Enabled {
		return nil
	}

	httpClient := llm.NewPooledHTTPClient(cfg.LLM.PoolSize, cfg.Voice.HTTPTimeout)
	backends := map[string]voice.Synthesizer{}

	if cfg.Voice.PiperURL != "" {
		backends["piper"] = voice.NewPiperSynthesizer(cfg.Voice.PiperURL, "en_US-lessac-medium", httpClient)
	}
	if cfg.Voice.SpeechURL != "" {
		backends["speech"] = voice.NewSpeechSynthesizer(cfg.Voice.SpeechURL, "tts-1", "alloy", httpClient)
	}
	if cfg.Voice.ElevenLabs != nil {
		apiKey, err := secrets.Load(secrets.Source{Name: "elevenlabs api key", File: cfg.Voice.ElevenLabs.APIKeyFile})
		if err != nil {
			zlog.Warn("skipping elevenlabs backend", zap.Error(err))
		} else {
			backends["elevenlabs"] = voice.NewElevenLabsSynthesizer(apiKey, cfg.Voice.ElevenLabs.VoiceID, cfg.Voice.ElevenLabs.ModelID, httpClient)
		}
	}

	if len(backends) == 0 {
		zlog.Warn("voice enabled but no synthesis backend configured")
		return nil
	}
	return voice.NewRouter(backends, cfg.Voice.Engine)
}

func buildRoomManager(cfg *Config, zlog *zap.Logger) *rooms.Manager {
	if !cfg.Rooms.Enabled || cfg.Rooms.ProviderURL == "" {
		return nil
	}

	apiKey := ""
	if cfg.Rooms.APIKeyFile != "" {
		key, err := secrets.Load(secrets.Source{Name: "room provider api key", File: cfg.Rooms.APIKeyFile})
		if err != nil {
			zlog.Warn("room provider api key unavailable", zap.Error(err))
		} else {
			apiKey = key
		}
	}

	return rooms.NewManager(rooms.NewHTTPProvider(cfg.Rooms.ProviderURL, apiKey), zlog)
}
