package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/cloudconductor/orchestrator/pkg/config"
	"github.com/cloudconductor/orchestrator/pkg/datastore"
	"github.com/cloudconductor/orchestrator/pkg/graph"
	"github.com/cloudconductor/orchestrator/pkg/log"
	"github.com/cloudconductor/orchestrator/pkg/module"
	_ "github.com/cloudconductor/orchestrator/pkg/module/testmodules"
	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "cloudconductor",
	Short:   "Run bioinformatics pipelines as a dependency graph of remote-executed tools",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("cloudconductor version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	runCmd.Flags().String("config", "", "path to the pipeline config YAML file")
	runCmd.Flags().StringToString("main-input", nil, "main_input files as key=path pairs")
	_ = runCmd.MarkFlagRequired("config")

	validateCmd.Flags().String("config", "", "path to the pipeline config YAML file")
	validateCmd.Flags().StringToString("main-input", nil, "main_input files as key=path pairs")
	_ = validateCmd.MarkFlagRequired("config")

	graphCmd.Flags().String("config", "", "path to the pipeline config YAML file")
	_ = graphCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(graphCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Validate and execute a pipeline config to completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		if err := e.Validate(); err != nil {
			return err
		}
		runErr := e.Run(context.Background())

		ids := e.ToolIDs()
		sort.Strings(ids)
		for _, id := range ids {
			n, _ := e.Node(id)
			var nodeErr error
			if n != nil {
				nodeErr = n.Finalize()
			}
			fmt.Println(graph.RunResultSummary(id, nodeErr))
		}

		return runErr
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a pipeline config's I/O compatibility and tool/resource requirements without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		if err := e.Validate(); err != nil {
			return err
		}
		fmt.Println("config is valid")
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the dependency graph's tool_ids in alphabetical order",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		ids := e.ToolIDs()
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

// buildEngine loads the config named by --config, resolves --main-input
// into a datastore.PipelineData, and builds (but does not validate or run)
// the graph engine.
func buildEngine(cmd *cobra.Command) (*graph.Engine, error) {
	configPath, _ := cmd.Flags().GetString("config")
	mainInput, _ := cmd.Flags().GetStringToString("main-input")

	doc, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	providerEnv, err := config.LoadProviderEnv()
	if err != nil {
		return nil, fmt.Errorf("provider environment: %w", err)
	}

	manifest := make(map[types.DataKey][]types.FileRef, len(mainInput))
	for key, path := range mainInput {
		fileID := fmt.Sprintf("main_input.%s", key)
		manifest[types.DataKey(key)] = []types.FileRef{datastore.NewFileRef(fileID, types.DataKey(key), path, nil)}
	}
	pipelineData := datastore.NewStaticPipelineData(manifest)

	shape := types.InstanceShape{
		Zone:           providerEnv.DefaultZone,
		Image:          providerEnv.DefaultImage,
		ServiceAccount: providerEnv.ServiceAccount,
		Preemptible:    providerEnv.Preemptible,
		CPUs:           4,
		MemoryGB:       16,
		DiskGB:         100,
	}
	gcloud := provider.NewGCloudProvider(providerEnv.SSHKeyPath, providerEnv.SSHUser, nil, nil)
	limiter := rate.NewLimiter(rate.Limit(1), 1)

	e := graph.New(pipelineData, module.Global(), gcloud, limiter, shape, doc.Catalog, doc.Resources)
	if err := e.Build(doc); err != nil {
		return nil, err
	}
	return e, nil
}
