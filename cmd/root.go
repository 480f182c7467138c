/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/duffpl/go-dtp/config"
	"github.com/duffpl/go-dtp/lock"
	"github.com/duffpl/go-dtp/processor"
	"github.com/duffpl/go-dtp/runner"
	"github.com/duffpl/go-dtp/templates"
	"github.com/duffpl/go-dtp/transformations"
	"github.com/duffpl/go-dtp/writer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	FlagNameInput    = "input"
	FlagNameOutput   = "output"
	FlagNameConfig   = "config"
	FlagNameFormat   = "format"
	FlagNameEncoding = "encoding"
	FlagNameIndexes  = "indexes"
	FlagNameLogLevel = "log-level"
	FlagNameStore    = "store"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "go-dtp",
		Short: "Streams JSON datasets through a configured transformation pipeline",
		Long: `go-dtp reads a dataset document (columns then records), applies the
actions listed in the config file to the schema and to every row, and writes
the result as JSON or as a SQL dump. The preview command reports original and
transformed values for selected rows only.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	rootCmd.PersistentFlags().StringP(FlagNameConfig, "c", "config.json", "config file")
	rootCmd.PersistentFlags().String(FlagNameLogLevel, "", "log level (overrides LOG_LEVEL)")
	rootCmd.AddCommand(newTransformCmd(), newPreviewCmd(), newBatchCmd())
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if lvl := cmd.Flag(FlagNameLogLevel).Value.String(); lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logrus.SetLevel(level)
	}
	l := logrus.StandardLogger()
	processor.SetLogger(l)
	runner.SetLogger(l)
	lock.SetLogger(l)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads the config file. A missing default config file means
// built-in defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := cmd.Flag(FlagNameConfig).Value.String()
	cfg, err := config.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flag(FlagNameConfig).Changed {
		return config.Default(), nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}

func newPipeline(cfg config.Config) (*transformations.Pipeline, error) {
	env, err := templates.NewEnvironment(cfg.Settings.Locale)
	if err != nil {
		return nil, fmt.Errorf("cannot create template environment: %w", err)
	}
	pipeline, err := transformations.NewPipelineFromConfig(cfg, env)
	if err != nil {
		return nil, fmt.Errorf("cannot create pipeline: %w", err)
	}
	return pipeline, nil
}

func newWriter(settings config.Settings, output io.Writer) (processor.Writer, error) {
	switch settings.Format {
	case "json":
		return writer.NewJSONWriter(output), nil
	case "sql":
		return writer.NewSQLWriter(output, settings.Table), nil
	}
	return nil, fmt.Errorf("unknown output format '%s'", settings.Format)
}

// overrideSettings applies command line flags on top of the config file.
func overrideSettings(cmd *cobra.Command, cfg *config.Config) {
	if f := cmd.Flags().Lookup(FlagNameFormat); f != nil && f.Changed {
		cfg.Settings.Format = f.Value.String()
	}
	if f := cmd.Flags().Lookup(FlagNameEncoding); f != nil && f.Changed {
		cfg.Settings.Encoding = f.Value.String()
	}
}

func getInputStream(filename string) (io.ReadCloser, error) {
	if filename == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open file: %w", err)
	}
	return struct {
		io.Reader
		io.Closer
	}{bufio.NewReader(f), f}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func getOutputStream(filename string) (io.WriteCloser, error) {
	if filename == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot create file: %w", err)
	}
	return f, nil
}

// runFile runs one transformation between the --input and --output streams.
func runFile(cmd *cobra.Command, cfg config.Config, mode processor.Mode, indexes []int) error {
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	input, err := getInputStream(cmd.Flag(FlagNameInput).Value.String())
	if err != nil {
		return fmt.Errorf("cannot create input stream: %w", err)
	}
	defer input.Close()
	output, err := getOutputStream(cmd.Flag(FlagNameOutput).Value.String())
	if err != nil {
		return fmt.Errorf("cannot create output stream: %w", err)
	}
	defer output.Close()
	w, err := newWriter(cfg.Settings, output)
	if err != nil {
		return err
	}
	p, err := processor.NewProcessor(processor.Configuration{
		Input:    input,
		Output:   w,
		Pipeline: pipeline,
		Mode:     mode,
		Indexes:  indexes,
		Encoding: cfg.Settings.Encoding,
	})
	if err != nil {
		return fmt.Errorf("cannot create processor: %w", err)
	}
	if _, err := p.Process(commandContext(cmd)); err != nil {
		return err
	}
	return output.Close()
}

func addStreamFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(FlagNameInput, "i", "", "input file (if not set stdin is used)")
	cmd.Flags().StringP(FlagNameOutput, "o", "", "output file (if not set stdout is used)")
	cmd.Flags().StringP(FlagNameEncoding, "e", "", "input character encoding (default utf-8)")
}
