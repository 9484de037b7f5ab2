package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/lsp"
	"quill/internal/version"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the quill language server over stdio",
	Args:  cobra.NoArgs,
	RunE:  runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", lsp.DefaultDebounce, "quiet period after an edit before checking")
	addCacheFlags(lspCmd)
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	cache, err := readCacheOptions(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupDiagnostics(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	configure := func(root string) (lsp.CheckFunc, error) {
		if root == "" {
			root = "."
		}
		cfg, err := loadConfig(cmd, root)
		if err != nil {
			return nil, err
		}
		coord, err := newCoordinator(cfg, cache)
		if err != nil {
			return nil, err
		}
		return coord.Run, nil
	}
	initial, err := configure("")
	if err != nil {
		return err
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce:  debounce,
		Check:     initial,
		Configure: configure,
		Version:   version.Version,
		Log:       cmd.ErrOrStderr(),
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return &exitError{code: 1}
		}
		return err
	}
	return nil
}
