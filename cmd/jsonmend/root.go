package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jsonmend/jsonmend"
	"github.com/jsonmend/jsonmend/internal/config"
	"github.com/jsonmend/jsonmend/internal/embeddings"
	"github.com/jsonmend/jsonmend/pkg/logging"
	"github.com/jsonmend/jsonmend/pkg/reconcile"
	"github.com/jsonmend/jsonmend/pkg/responder"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "jsonmend",
	Short: "Reconcile loosely structured JSON against a schema",
	Long: `jsonmend aligns LLM-generated JSON documents against a schema.

A schema file (JSON or YAML) declares the keys and types you expect.
Documents are matched key by key, values are coerced to the expected
types, and keys that miss are re-homed by edit-distance and embedding
similarity. The output reports matched, unmatched, and errored keys.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelStr, _ := cmd.Flags().GetString("log-level")
		if levelStr == "" {
			return nil
		}
		level, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", levelStr, err)
		}
		zerolog.SetGlobalLevel(level)
		logging.SetDefault(logging.NewConsole().Level(level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("schema", "s", "", "path to the schema file (JSON or YAML)")
	rootCmd.PersistentFlags().Bool("fan-out", false, "return every complete entity found in a list instead of the first")
	rootCmd.PersistentFlags().Bool("no-fuzzy", false, "disable fuzzy and semantic key re-homing")
	rootCmd.PersistentFlags().Float64("surface-threshold", 0, "override the edit-distance acceptance threshold")
	rootCmd.PersistentFlags().Float64("semantic-threshold", 0, "override the embedding cosine acceptance threshold")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")

	_ = viper.BindPFlag("schema", rootCmd.PersistentFlags().Lookup("schema"))
}

// newClient assembles a jsonmend client from flags and the environment,
// loading and submitting the schema file.
func newClient(cmd *cobra.Command, needResponder bool) (jsonmend.Client, error) {
	opts := []jsonmend.Option{
		jsonmend.WithLogger(*logging.Default()),
	}

	if fanOut, _ := cmd.Flags().GetBool("fan-out"); fanOut {
		opts = append(opts, jsonmend.WithListEntityPolicy(reconcile.ListEntityFanOut))
	}
	noFuzzy, _ := cmd.Flags().GetBool("no-fuzzy")
	if noFuzzy {
		opts = append(opts, jsonmend.WithoutFuzzyMatch())
	}
	if t, _ := cmd.Flags().GetFloat64("surface-threshold"); t > 0 {
		opts = append(opts, jsonmend.WithSurfaceThreshold(t))
	}
	if t, _ := cmd.Flags().GetFloat64("semantic-threshold"); t > 0 {
		opts = append(opts, jsonmend.WithSemanticThreshold(t))
	}

	// Semantic matching needs a Gemini key; without one the pipeline
	// still runs surface matching.
	if !noFuzzy && config.HasGeminiKey() {
		key, err := config.GeminiKey()
		if err != nil {
			return nil, err
		}
		var embedOpts []embeddings.GeminiOption
		if model := config.EmbeddingModel(); model != "" {
			embedOpts = append(embedOpts, embeddings.WithModel(model))
		}
		embedder, err := embeddings.NewGemini(key, embedOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, jsonmend.WithEmbedder(embedder))
	}

	if needResponder {
		r, err := newResponder()
		if err != nil {
			return nil, err
		}
		opts = append(opts, jsonmend.WithResponder(r))
	}

	client, err := jsonmend.New(opts...)
	if err != nil {
		return nil, err
	}

	schemaPath := viper.GetString("schema")
	if schemaPath == "" {
		return nil, fmt.Errorf("a schema file is required, pass --schema")
	}
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	if err := client.SubmitSchema(raw); err != nil {
		return nil, err
	}
	return client, nil
}

// newResponder picks a generative backend from the configured keys,
// preferring OpenAI.
func newResponder() (responder.Responder, error) {
	if config.HasOpenAIKey() {
		key, err := config.OpenAIKey()
		if err != nil {
			return nil, err
		}
		var opts []responder.OpenAIOption
		if model := config.OpenAIModel(); model != "" {
			opts = append(opts, responder.WithOpenAIModel(model))
		}
		return responder.NewOpenAI(key, opts...)
	}
	if config.HasGeminiKey() {
		key, err := config.GeminiKey()
		if err != nil {
			return nil, err
		}
		var opts []responder.GeminiOption
		if model := config.GeminiModel(); model != "" {
			opts = append(opts, responder.WithGeminiModel(model))
		}
		return responder.NewGemini(key, opts...)
	}
	return nil, fmt.Errorf("no generative backend configured, set OPENAI_API_KEY or GEMINI_API_KEY")
}

// readInput reads a document argument, treating "-" or absence as stdin.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
