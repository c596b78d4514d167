package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"rom-manager/core/config"
	"rom-manager/core/container"
	"rom-manager/core/hashing"
	"rom-manager/core/library"

	"go.uber.org/zap"
)

// Lists and hashes the entries of each container given on the command line,
// the way import sees them. HASH selects the algorithm (default CRC).
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_container FILE...")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	algo := hashing.CRC
	if name := os.Getenv("HASH"); name != "" {
		if algo, err = hashing.ParseAlgorithm(name); err != nil {
			log.Fatal(err)
		}
	}

	layout, err := library.NewLayout(cfg.Library)
	if err != nil {
		log.Fatal(err)
	}

	registry := container.DefaultRegistry(container.ExecRunner{}, nil, zap.NewNop())
	fmt.Printf("Registered extensions: %v\n", registry.Extensions())

	ctx := context.Background()
	for _, path := range os.Args[1:] {
		if tool, ok := registry.MissingTool(path); ok {
			fmt.Printf("\n=== %s ===\nSkipped: %s not installed\n", path, tool)
			continue
		}
		adapter := registry.Lookup(path)
		fmt.Printf("\n=== %s (%s) ===\n", path, adapter.Family())

		entries, err := adapter.List(ctx, path)
		if err != nil {
			fmt.Printf("List failed: %v\n", err)
			continue
		}
		listing, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(listing))

		if err := hashEntries(ctx, layout, adapter, path, entries, algo); err != nil {
			fmt.Printf("Decode failed: %v\n", err)
		}
	}
}

func hashEntries(ctx context.Context, layout *library.Layout, adapter container.Adapter, path string, entries []container.Entry, algo hashing.Algorithm) error {
	scratch, err := layout.NewScratch()
	if err != nil {
		return err
	}
	defer scratch.Close()

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	paths, err := adapter.Materialize(ctx, path, names, scratch)
	if err != nil {
		return err
	}

	for i, p := range paths {
		sum, err := hashing.HashFile(p, 0, algo)
		if err != nil {
			return err
		}
		fmt.Printf("%s\tsize=%d\t%s=%s\n", entries[i].Name, sum.Size, algo, sum.Digest)
	}
	return nil
}
