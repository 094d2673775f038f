package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/registry"
)

// Build-time injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runRequest(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "trail":
		runTrail(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	treePath := fs.String("tree", "", "Path to worker tree YAML file")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	path := *treePath
	if path == "" {
		cfg := loadConfig(*configPath)
		path = cfg.Tree.Path
	}

	reg, err := registry.LoadFile(path, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid worker tree: %v\n", err)
		os.Exit(1)
	}

	summary := map[string]any{
		"tenant":  reg.Tenant(),
		"root":    reg.Root().Name,
		"workers": reg.Len(),
	}
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

func printVersion() {
	fmt.Printf("swarmflow %s\n", Version)
	fmt.Printf("  build time: %s\n", BuildTime)
	fmt.Printf("  git commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`swarmflow - hierarchical task delegation with failure containment

Usage:
  swarmflow <command> [flags]

Commands:
  run       Drive one request through the worker tree
  validate  Validate a worker tree file
  trail     Print the stored event trail of a request
  version   Show version information
  help      Show this help

Flags for run:
  --task    Task description (required)
  --tenant  Tenant override
  --config  Path to config file

Flags for validate:
  --tree    Path to worker tree YAML file
  --config  Path to config file (tree path taken from it)

Flags for trail:
  --id      Request ID (required)
  --config  Path to config file

Environment:
  SWARMFLOW_* variables override file configuration,
  e.g. SWARMFLOW_LOG_LEVEL=debug swarmflow run --task "..."`)
}
