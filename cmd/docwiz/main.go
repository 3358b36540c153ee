package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"docwiz/internal/api"
	"docwiz/internal/config"
	"docwiz/internal/export"
	"docwiz/internal/knowledge"
	"docwiz/internal/outline"
	"docwiz/internal/pipeline"
	"docwiz/internal/wizard"
)

var (
	rootCmd = &cobra.Command{
		Use:   "docwiz",
		Short: "AI-assisted document wizard: topic, outline, content, export",
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")

	generateCmd.Flags().String("level", "", "Academic level (e.g. Undergraduate, Graduate)")
	generateCmd.Flags().Int("length", 0, "Target document length in pages")
	generateCmd.Flags().String("description", "", "Optional topic description")
	generateCmd.Flags().StringP("format", "f", "pdf", "Export format: pdf, docx, xlsx or md")
	generateCmd.Flags().StringP("out", "o", "out", "Output directory")
	generateCmd.Flags().Bool("preview", false, "Render the document preview in the terminal")

	outlineCmd.Flags().String("level", "", "Academic level")
	outlineCmd.Flags().Int("length", 0, "Target document length in pages")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(outlineCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// initGenerator builds the configured AI provider. Without an API key the
// wizard still works on the default outline.
func initGenerator(ctx context.Context, cfg *config.Config) knowledge.Generator {
	if !cfg.HasAI() {
		fmt.Println("⚠️  No AI API key configured (DOCWIZ_API_KEY). Using the default outline.")
		return nil
	}
	gen, err := knowledge.NewGenerator(ctx, knowledge.GeneratorOptions{
		Provider:     cfg.AI.Provider,
		APIKey:       cfg.AI.APIKey,
		OutlineModel: cfg.AI.OutlineModel,
		ContentModel: cfg.AI.ContentModel,
		BaseURL:      cfg.AI.BaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to create %s generator: %v", cfg.AI.Provider, err)
	}
	return gen
}

func newManager(ctx context.Context, cfg *config.Config, logger *slog.Logger) *wizard.Manager {
	return wizard.NewManager(wizard.Deps{
		Generator: initGenerator(ctx, cfg),
		Exporter: export.NewExporter(export.Options{
			PreparedBy:  cfg.Document.PreparedBy,
			Institution: cfg.Document.Institution,
		}),
		Logger: logger,
	})
}

func topicFromFlags(cmd *cobra.Command, cfg *config.Config, mainTopic string) outline.Topic {
	level, _ := cmd.Flags().GetString("level")
	length, _ := cmd.Flags().GetInt("length")
	var description string
	if f := cmd.Flags().Lookup("description"); f != nil {
		description = f.Value.String()
	}
	return cfg.Topic(outline.Topic{
		MainTopic:      mainTopic,
		Description:    description,
		DocumentLength: length,
		AcademicLevel:  level,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wizard HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		cfg := loadConfig()
		slog.Info("Starting server", "port", cfg.Server.Port, "provider", cfg.AI.Provider, "ai", cfg.HasAI(), "dev", cfg.IsDevelopment())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mgr := newManager(ctx, cfg, logger)
		defer mgr.CloseAll()

		origins := cfg.AllowedOrigins()
		handler := api.NewHandler(mgr, api.Options{
			TopicDefaults:  cfg.Topic,
			OriginPatterns: originPatterns(origins),
			Logger:         logger,
		})

		// Content generation and the event stream outlive any fixed write timeout.
		srv := &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      api.NewRouter(handler, origins),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: 0,
			IdleTimeout:  120 * time.Second,
		}

		mgr.StartReaper(ctx, reaperInterval(cfg.Server.SessionTTL), cfg.Server.SessionTTL)

		go func() {
			slog.Info("Server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				os.Exit(1)
			}
		}()

		<-ctx.Done()
		slog.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		slog.Info("Server stopped")
	},
}

// originPatterns strips schemes, which the websocket handshake matches
// against the Origin host.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		out = append(out, o)
	}
	return out
}

func reaperInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Run the whole wizard for a topic and export the document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		formatName, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatName)
		if err != nil {
			log.Fatalf("Invalid format: %v", err)
		}
		outDir, _ := cmd.Flags().GetString("out")
		showPreview, _ := cmd.Flags().GetBool("preview")

		quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		runner := pipeline.NewRunner(newManager(ctx, cfg, quiet))

		start := time.Now()
		res, err := runner.Run(ctx, topicFromFlags(cmd, cfg, args[0]), format, outDir)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}

		if showPreview {
			fmt.Println(renderPreview(res.Preview))
		}
		if !res.Complete {
			fmt.Printf("⚠️  %d subtopic(s) have no content; the export contains empty sections.\n", len(res.Summary.Failed))
		}
		fmt.Printf("📊 Run report: %s\n", res.ReportPath)
		fmt.Printf("✅ Done in %v: %s\n", time.Since(start).Round(time.Millisecond), res.Path)
	},
}

func renderPreview(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

var outlineCmd = &cobra.Command{
	Use:   "outline <topic>",
	Short: "Generate and print an outline for a topic",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		mgr := newManager(ctx, cfg, quiet)
		s := mgr.Create()
		defer mgr.CloseAll()

		fmt.Printf("🧭 Drafting outline for %q...\n", args[0])
		if err := s.SubmitTopic(ctx, topicFromFlags(cmd, cfg, args[0])); err != nil {
			log.Fatalf("Failed to generate outline: %v", err)
		}

		doc := s.Outline()
		fmt.Printf("\n📝 %s\n", doc.MainTopic)
		for _, sec := range outline.Number(doc) {
			fmt.Printf("%s\n", sec.Heading())
			for _, st := range sec.Subtopics {
				fmt.Printf("   %s\n", st.Heading())
			}
		}
	},
}
