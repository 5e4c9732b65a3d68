package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/spanqa/spanqa/batch"
	"github.com/spanqa/spanqa/envconfig"
	"github.com/spanqa/spanqa/logutil"
	"github.com/spanqa/spanqa/server"
	"github.com/spanqa/spanqa/version"
	"github.com/spanqa/spanqa/vocab"
)

func initLogging() {
	level := slog.LevelInfo
	if envconfig.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logutil.NewLogger(os.Stderr, level))
}

type datasetFlags struct {
	vocabPath    string
	sharedPath   string
	contextPath  string
	questionPath string
	answerPath   string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.vocabPath, "vocab", "", "vocabulary file, one word per line")
	cmd.Flags().StringVar(&f.sharedPath, "shared", "", "shared embedding index file (optional)")
	cmd.Flags().StringVar(&f.contextPath, "contexts", "", "context file, one passage per line")
	cmd.Flags().StringVar(&f.questionPath, "questions", "", "question file, one question per line")
	cmd.Flags().StringVar(&f.answerPath, "answers", "", "answer span file, two integers per line")
	for _, name := range []string{"vocab", "contexts", "questions", "answers"} {
		cmd.MarkFlagRequired(name)
	}
}

func (f *datasetFlags) load() (*vocab.Vocabulary, *vocab.SharedIndex, error) {
	v, err := vocab.Open(f.vocabPath)
	if err != nil {
		return nil, nil, err
	}

	var shared *vocab.SharedIndex
	if f.sharedPath != "" {
		if shared, err = vocab.OpenSharedIndex(f.sharedPath); err != nil {
			return nil, nil, err
		}
	}

	return v, shared, nil
}

func configFromFlags(cmd *cobra.Command) batch.Config {
	cfg := batch.DefaultConfig()
	if n, err := cmd.Flags().GetInt("batch-size"); err == nil && n > 0 {
		cfg.BatchSize = n
	}
	if n, err := cmd.Flags().GetInt("context-len"); err == nil && n > 0 {
		cfg.ContextLen = n
	}
	if n, err := cmd.Flags().GetInt("question-len"); err == nil && n > 0 {
		cfg.QuestionLen = n
	}
	if n, err := cmd.Flags().GetInt("word-len"); err == nil && n > 0 {
		cfg.WordLen = n
	}
	if cmd.Flags().Changed("discard-long") {
		cfg.DiscardLong, _ = cmd.Flags().GetBool("discard-long")
	}
	return cfg
}

func registerConfigFlags(cmd *cobra.Command) {
	cmd.Flags().Int("batch-size", 0, "examples per batch")
	cmd.Flags().Int("context-len", 0, "padded context length in tokens")
	cmd.Flags().Int("question-len", 0, "padded question length in tokens")
	cmd.Flags().Int("word-len", 0, "character ids kept per token")
	cmd.Flags().Bool("discard-long", false, "drop over-length examples instead of truncating")
}

func openGenerator(cmd *cobra.Command, flags *datasetFlags) (*batch.Generator, error) {
	v, shared, err := flags.load()
	if err != nil {
		return nil, err
	}

	var opts []batch.Option
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts = append(opts, batch.WithSeed(seed))
	}
	if path, _ := cmd.Flags().GetString("uuids"); path != "" {
		opts = append(opts, batch.WithUUIDFile(path))
	} else if gen, _ := cmd.Flags().GetBool("gen-uuids"); gen {
		opts = append(opts, batch.WithGeneratedUUIDs())
	}

	return batch.Open(configFromFlags(cmd), v, nil, shared, flags.contextPath, flags.questionPath, flags.answerPath, opts...)
}

func BatchHandler(cmd *cobra.Command, flags *datasetFlags) error {
	gen, err := openGenerator(cmd, flags)
	if err != nil {
		return err
	}
	defer gen.Close()

	var enc *cbor.Encoder
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		enc = cbor.NewEncoder(f)
	}

	var batches, examples int
	for {
		b, err := gen.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		batches++
		examples += b.Size
		if enc != nil {
			if err := enc.Encode(b); err != nil {
				return err
			}
		}
	}

	slog.Info("done", "batches", batches, "examples", examples)
	return nil
}

func StatsHandler(cmd *cobra.Command, flags *datasetFlags) error {
	gen, err := openGenerator(cmd, flags)
	if err != nil {
		return err
	}
	defer gen.Close()

	var batches, examples, unk, contextTotal, questionTotal int
	questionLens := make(map[int]int)
	for {
		b, err := gen.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		batches++
		examples += b.Size
		for _, ids := range b.ContextIDs {
			for _, id := range ids {
				if id == vocab.UnkID {
					unk++
				}
			}
		}
		for _, tokens := range b.ContextTokens {
			contextTotal += len(tokens)
		}
		for _, tokens := range b.QuestionTokens {
			questionTotal += len(tokens)
			questionLens[len(tokens)]++
		}
	}

	if examples == 0 {
		return errors.New("dataset produced no examples")
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"STAT", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk([][]string{
		{"batches", strconv.Itoa(batches)},
		{"examples", strconv.Itoa(examples)},
		{"mean context tokens", fmt.Sprintf("%.1f", float64(contextTotal)/float64(examples))},
		{"mean question tokens", fmt.Sprintf("%.1f", float64(questionTotal)/float64(examples))},
		{"context unk ids", strconv.Itoa(unk)},
	})
	table.Render()

	fmt.Fprintln(cmd.OutOrStdout())

	hist := tablewriter.NewWriter(cmd.OutOrStdout())
	hist.SetHeader([]string{"QUESTION LEN", "EXAMPLES"})
	hist.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	hist.SetAlignment(tablewriter.ALIGN_LEFT)
	hist.SetHeaderLine(false)
	hist.SetBorder(false)
	hist.SetNoWhiteSpace(true)
	hist.SetTablePadding("    ")
	lens := maps.Keys(questionLens)
	slices.Sort(lens)
	for _, l := range lens {
		hist.Append([]string{strconv.Itoa(l), strconv.Itoa(questionLens[l])})
	}
	hist.Render()

	return nil
}

func ServeHandler(cmd *cobra.Command, flags *datasetFlags) error {
	v, shared, err := flags.load()
	if err != nil {
		return err
	}

	host, _ := cmd.Flags().GetString("host")
	if host == "" {
		host = envconfig.Host
	}

	ln, err := net.Listen("tcp", host)
	if err != nil {
		return err
	}

	return server.Serve(ln, v, nil, shared)
}

func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false
	initLogging()

	rootCmd := &cobra.Command{
		Use:           "spanqa",
		Short:         "Batch construction for span-based question answering",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	var batchFlags datasetFlags
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the pipeline over a dataset, optionally writing batches to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return BatchHandler(cmd, &batchFlags)
		},
	}
	batchFlags.register(batchCmd)
	registerConfigFlags(batchCmd)
	batchCmd.Flags().String("output", "", "write CBOR-encoded batches to this file")
	batchCmd.Flags().Uint64("seed", 0, "seed for the chunk shuffle")
	batchCmd.Flags().String("uuids", "", "line-aligned uuid file for inference mode")
	batchCmd.Flags().Bool("gen-uuids", false, "generate a uuid per example")

	var statsFlags datasetFlags
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a dataset after batching",
		RunE: func(cmd *cobra.Command, args []string) error {
			return StatsHandler(cmd, &statsFlags)
		},
	}
	statsFlags.register(statsCmd)
	registerConfigFlags(statsCmd)
	statsCmd.Flags().Uint64("seed", 0, "seed for the chunk shuffle")
	statsCmd.Flags().String("uuids", "", "line-aligned uuid file for inference mode")
	statsCmd.Flags().Bool("gen-uuids", false, "generate a uuid per example")

	var serveFlags datasetFlags
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve batches over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ServeHandler(cmd, &serveFlags)
		},
	}
	serveCmd.Flags().StringVar(&serveFlags.vocabPath, "vocab", "", "vocabulary file, one word per line")
	serveCmd.Flags().StringVar(&serveFlags.sharedPath, "shared", "", "shared embedding index file (optional)")
	serveCmd.MarkFlagRequired("vocab")
	serveCmd.Flags().String("host", "", "listen address (default SPANQA_HOST)")

	rootCmd.AddCommand(batchCmd, statsCmd, serveCmd)
	return rootCmd
}
