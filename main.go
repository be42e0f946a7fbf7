package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lidavidm/rustv/cache"
	"github.com/lidavidm/rustv/config"
	"github.com/lidavidm/rustv/core"
	"github.com/lidavidm/rustv/hostio"
	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/loader"
	"github.com/lidavidm/rustv/memory"
	"github.com/lidavidm/rustv/sim"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Config file path (default: platform config dir)")
		format      = flag.String("format", "hex", "Input image format: hex or elf")
		numCores    = flag.Int("cores", 0, "Number of cores (0: use config default)")
		maxCycles   = flag.Uint64("max-cycles", 0, "Maximum cycles before halt (0: use config default)")
		numSets     = flag.Uint("cache-sets", 0, "Cache sets per core (0: use config default)")
		blockWords  = flag.Uint("cache-block-words", 0, "Cache block size in words (0: use config default)")
		translator  = flag.String("translator", "", "Address translator: identity or reverse (empty: use config default)")
		inspect     = flag.Bool("inspect", false, "Print a final cache/core inspection snapshot")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("rustv %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: rustv [flags] <image-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rustv: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg, *numCores, *maxCycles, *numSets, *blockWords, *translator)

	if err := run(cfg, flag.Arg(0), *format, *inspect); err != nil {
		fmt.Fprintf(os.Stderr, "rustv: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func applyOverrides(cfg *config.Config, numCores int, maxCycles uint64, numSets, blockWords uint, translatorMode string) {
	if numCores > 0 {
		cfg.Execution.NumCores = numCores
	}
	if maxCycles > 0 {
		cfg.Execution.MaxCycles = maxCycles
	}
	if numSets > 0 {
		cfg.Cache.NumSets = uint32(numSets)
	}
	if blockWords > 0 {
		cfg.Cache.BlockWords = uint32(blockWords)
	}
	if translatorMode != "" {
		cfg.Translator.Mode = translatorMode
	}
}

func buildTranslator(cfg *config.Config) (memory.Translator, error) {
	switch cfg.Translator.Mode {
	case "identity", "":
		return memory.IdentityTranslator{}, nil
	case "reverse":
		return memory.NewReverseTranslator(isa.Address(cfg.Execution.MemoryWords * 4)), nil
	default:
		return nil, fmt.Errorf("unknown translator mode %q", cfg.Translator.Mode)
	}
}

func run(cfg *config.Config, imagePath, format string, inspect bool) error {
	backing := memory.NewBackingMemory(cfg.Execution.MemoryWords)
	translator, err := buildTranslator(cfg)
	if err != nil {
		return err
	}

	entry := isa.Address(cfg.Execution.EntryPoint)
	if err := loadImage(imagePath, format, backing, translator, &entry); err != nil {
		return err
	}

	caches := make([]*cache.DirectMappedCache, cfg.Execution.NumCores)
	cores := make([]*core.Core, cfg.Execution.NumCores)
	for i := range cores {
		ch := cache.New(cfg.Cache.NumSets, cfg.Cache.BlockWords, backing, cache.NoopEventHandler{})
		caches[i] = ch
		cores[i] = core.New(i, entry, ch, translator)
	}

	handler := hostio.NewHandler(os.Stdout, backing)
	driver := sim.New(cores, backing, caches, handler)

	reason := driver.RunMax(int(cfg.Execution.MaxCycles))
	fmt.Printf("halted: %s\n", reason)
	for _, r := range driver.Report() {
		fmt.Printf("core %d: stall_cycles=%d total_cycles=%d\n", r.CoreID, r.StallCycles, r.TotalCycles)
	}

	if inspect {
		printInspection(driver.Inspect())
	}

	if handler.ShouldHalt() && handler.ExitCode() != 0 {
		os.Exit(int(handler.ExitCode()))
	}
	return nil
}

func loadImage(path, format string, backing *memory.BackingMemory, translator memory.Translator, entry *isa.Address) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "hex":
		return loader.LoadHexInto(f, backing, translator, *entry)
	case "elf":
		loadedEntry, err := loader.LoadELFInto(f, backing, translator)
		if err != nil {
			return err
		}
		*entry = loadedEntry
		return nil
	default:
		return fmt.Errorf("unknown image format %q (want hex or elf)", format)
	}
}

func printInspection(snap sim.Inspection) {
	for i, meta := range snap.Caches {
		valid := 0
		for _, tag := range meta.Tags {
			if tag.Valid {
				valid++
			}
		}
		fmt.Printf("cache %d: %d/%d sets resident, block_words=%d\n", i, valid, meta.NumSets, meta.NumBlockWords)
	}
	for _, c := range snap.Cores {
		fmt.Printf("core %d: pc=%#08x stall=%d running=%t\n", c.ID, c.PC, c.Stall, c.Running)
	}
}
