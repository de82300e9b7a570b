package main

import (
	"encoding/json"
	"fmt"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/shard"
	"github.com/spf13/cobra"
)

// outlineCmd, whyCmd and inspectCmd are read-only query commands over the
// persisted codebase map, in the spirit of CKB's cmd/ckb
// explain/trace/symbol commands, narrowed to outline rendering and
// dependency/dependent tracing.
var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Print the persisted codebase memory's outline",
	RunE:  runOutline,
}

var whyCmd = &cobra.Command{
	Use:   "why <file-path>",
	Short: "Explain why a file would be pulled into review context: its dependencies and dependents",
	Args:  cobra.ExactArgs(1),
	RunE:  runWhy,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file-path>",
	Short: "Print the indexed symbols and edges for one file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runOutline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := wire(repoRootFlag, branchFlag)
	if err != nil {
		return err
	}
	pulled, err := svc.store.Pull(ctx)
	if err != nil {
		return err
	}
	if !pulled.BranchExists {
		return fmt.Errorf("no existing index on %q; run 'argus bootstrap' first", branchFlag)
	}
	mem, ok, err := loadMemory(ctx, svc.store, pulled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no memory persisted yet on %q", branchFlag)
	}
	for _, f := range mem.Outline.Files {
		fmt.Printf("%s\n%s\n\n", f.FilePath, f.SymbolsText)
	}
	return nil
}

func runWhy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := ids.NewFilePath(args[0])

	svc, err := wire(repoRootFlag, branchFlag)
	if err != nil {
		return err
	}
	pulled, err := svc.store.Pull(ctx)
	if err != nil {
		return err
	}
	if !pulled.BranchExists {
		return fmt.Errorf("no existing index on %q; run 'argus bootstrap' first", branchFlag)
	}

	required := shard.ExpandOneHop(shard.RequiredShards([]ids.FilePath{target}), pulled.Manifest)
	blobs, err := svc.store.FetchShards(ctx, pulled, required)
	if err != nil {
		return err
	}
	m := shard.Assemble(pulled.Manifest, blobs)

	deps := m.Graph.Dependencies(string(target))
	dependents := m.Graph.Dependents(string(target))

	fmt.Printf("%s depends on:\n", target)
	for _, e := range deps {
		fmt.Printf("  %s -> %s (%s)\n", e.Source, e.Target, e.Kind)
	}
	fmt.Printf("%s is depended on by:\n", target)
	for _, e := range dependents {
		fmt.Printf("  %s -> %s (%s)\n", e.Source, e.Target, e.Kind)
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := ids.NewFilePath(args[0])

	svc, err := wire(repoRootFlag, branchFlag)
	if err != nil {
		return err
	}
	pulled, err := svc.store.Pull(ctx)
	if err != nil {
		return err
	}
	if !pulled.BranchExists {
		return fmt.Errorf("no existing index on %q; run 'argus bootstrap' first", branchFlag)
	}

	required := shard.RequiredShards([]ids.FilePath{target})
	blobs, err := svc.store.FetchShards(ctx, pulled, required)
	if err != nil {
		return err
	}
	m := shard.Assemble(pulled.Manifest, blobs)

	entry, ok := m.Get(target)
	if !ok {
		return fmt.Errorf("%s is not indexed", target)
	}
	return printEntry(entry)
}

func printEntry(entry codemap.FileEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
