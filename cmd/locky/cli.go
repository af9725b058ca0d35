package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/locky/internal/describe"
	"github.com/hpungsan/locky/internal/errors"
	"github.com/hpungsan/locky/internal/mcp"
	"github.com/hpungsan/locky/internal/preview"
	"github.com/hpungsan/locky/internal/selector"
	"github.com/hpungsan/locky/internal/storage"
	"github.com/hpungsan/locky/internal/vault"
	"github.com/hpungsan/locky/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(s *session) *cli.App {
	app := &cli.App{
		Name:      "locky",
		Usage:     "Keep copies of files in a personal vault and paste them anywhere",
		Version:   Version,
		Writer:    s.stdout,
		ErrWriter: s.stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log at debug level"},
		},
		Commands: []*cli.Command{
			addCmd(s),
			pasteCmd(s),
			listCmd(s),
			removeCmd(s),
			describeCmd(s),
			previewCmd(s),
			mcpCmd(s),
			uiCmd(s),
		},
		// No command prints usage and succeeds
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				unknownCommand(c, c.Args().First())
				return nil
			}
			return cli.ShowAppHelp(c)
		},
		CommandNotFound: unknownCommand,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// unknownCommand reports cmd and points at the usage. It is not an error.
func unknownCommand(c *cli.Context, cmd string) {
	fmt.Fprintf(c.App.Writer, "Unknown command: '%s'\n", cmd)
	fmt.Fprintf(c.App.Writer, "Run '%s --help' for usage.\n", c.App.Name)
}

// withVault opens the session before running action.
func withVault(s *session, action cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := s.open(c.Bool("verbose")); err != nil {
			return outputError(err)
		}
		return action(c)
	}
}

// addCmd creates the add command.
func addCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Copy a file into the vault (pick one interactively when no path is given)",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Overwrite an existing vault file without asking"},
			&cli.BoolFlag{Name: "redescribe", Usage: "Generate a new description even if one is stored"},
		},
		Action: withVault(s, func(c *cli.Context) error {
			ctx := c.Context

			path := c.Args().First()
			if path == "" {
				picked, err := s.pickAddCandidate(ctx)
				if err != nil {
					return outputError(err)
				}
				if picked == "" {
					fmt.Fprintln(s.stdout, "Nothing selected.")
					return nil
				}
				path = picked
			}

			m := s.vault
			if c.Bool("yes") {
				m = m.WithPrompter(vault.AlwaysPrompter(true))
			}

			out, err := m.Add(ctx, vault.AddInput{SourcePath: path})
			if err != nil {
				return outputError(err)
			}
			if out.Declined {
				fmt.Fprintf(s.stdout, "Skipped '%s' (already in vault)\n", out.Filename)
				return nil
			}
			fmt.Fprintf(s.stdout, "Added '%s'\n", out.Filename)

			d := s.describerFor(ctx)
			attached, err := describe.Attach(ctx, m, d, out.Filename, out.Path, c.Bool("redescribe"))
			if err != nil {
				return outputError(err)
			}
			fmt.Fprintf(s.stdout, "Description: %s\n", attached.Description)
			return nil
		}),
	}
}

// pickAddCandidate walks the configured root and lets the user choose a
// file. Returns "" when nothing was chosen.
func (s *session) pickAddCandidate(ctx context.Context) (string, error) {
	root := s.cfg.Add.Root
	candidates, err := selector.Candidates(ctx, root, selector.WalkOptions{
		Ignore:   s.cfg.Add.Ignore,
		MaxDepth: s.cfg.Add.MaxDepth,
		Limit:    s.cfg.Add.MaxCandidates,
	})
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		fmt.Fprintf(s.stdout, "No files found under %s.\n", root)
		return "", nil
	}

	sel, err := s.newSelector(selector.Options{
		Prompt:         "add> ",
		PreviewCommand: selector.ShellQuote(s.executable) + " preview --path " + selector.ShellQuote(root) + "/{}",
		Preview: func(rel string) string {
			var b strings.Builder
			_ = preview.WriteFile(&b, filepath.Join(root, rel), s.previewOptions(true))
			return b.String()
		},
		In:  s.stdin,
		Out: s.stderr,
	})
	if err != nil {
		return "", err
	}

	picked, err := sel.Select(ctx, candidates)
	if err != nil || len(picked) == 0 {
		return "", err
	}
	return filepath.Join(root, picked[0]), nil
}

// pasteCmd creates the paste command.
func pasteCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "paste",
		Usage: "Copy vault files into the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dest", Aliases: []string{"d"}, Usage: "Destination directory (default: current directory)"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Overwrite existing files without asking"},
		},
		Action: withVault(s, func(c *cli.Context) error {
			ctx := c.Context

			names, ok, err := s.pickVaultFiles(ctx, "paste> ")
			if err != nil {
				return outputError(err)
			}
			if !ok {
				return nil
			}

			m := s.vault
			if c.Bool("yes") {
				m = m.WithPrompter(vault.AlwaysPrompter(true))
			}

			out, err := m.Paste(ctx, vault.PasteInput{Filenames: names, DestDir: c.String("dest")})
			if err != nil {
				return outputError(err)
			}

			if len(out.Pasted) == 0 {
				fmt.Fprintln(s.stdout, "No files pasted.")
			} else {
				fmt.Fprintf(s.stdout, "Pasted %d file(s): %s\n", len(out.Pasted), strings.Join(out.Pasted, ", "))
			}
			if len(out.Skipped) > 0 {
				fmt.Fprintf(s.stdout, "Skipped: %s\n", strings.Join(out.Skipped, ", "))
			}
			return s.reportFaults(out.Faults)
		}),
	}
}

// listCmd creates the list command.
func listCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List vault files with their descriptions",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "long", Aliases: []string{"l"}, Usage: "Also show size and age"},
		},
		Action: withVault(s, func(c *cli.Context) error {
			out, err := s.vault.List(c.Context)
			if err != nil {
				return outputError(err)
			}
			if len(out.Items) == 0 {
				fmt.Fprintln(s.stdout, "Vault is empty.")
				return nil
			}

			for _, item := range out.Items {
				if c.Bool("long") {
					fmt.Fprintf(s.stdout, "%-32s %9s  %-16s %s\n",
						item.Filename,
						humanize.Bytes(uint64(max(item.SizeBytes, 0))),
						humanize.Time(time.Unix(item.AddedAt, 0)),
						item.Description)
					continue
				}
				fmt.Fprintf(s.stdout, "%s: %s\n", item.Filename, item.Description)
			}
			return nil
		}),
	}
}

// removeCmd creates the remove command.
func removeCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Delete files from the vault (pick interactively when no names are given)",
		ArgsUsage: "[name...]",
		Action: withVault(s, func(c *cli.Context) error {
			ctx := c.Context

			names := c.Args().Slice()
			if len(names) == 0 {
				picked, ok, err := s.pickVaultFiles(ctx, "remove> ")
				if err != nil {
					return outputError(err)
				}
				if !ok {
					return nil
				}
				names = picked
			}

			out, err := s.vault.Remove(ctx, vault.RemoveInput{Filenames: names})
			if err != nil {
				return outputError(err)
			}
			if len(out.Removed) > 0 {
				fmt.Fprintf(s.stdout, "Removed %d file(s): %s\n", len(out.Removed), strings.Join(out.Removed, ", "))
			}
			return s.reportFaults(out.Faults)
		}),
	}
}

// pickVaultFiles offers the stored files in a multi-select. ok is false
// when the vault is empty or nothing was chosen; the user has been told.
func (s *session) pickVaultFiles(ctx context.Context, prompt string) (names []string, ok bool, err error) {
	files, err := s.vault.Filenames(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(files) == 0 {
		fmt.Fprintln(s.stdout, "Vault is empty.")
		return nil, false, nil
	}

	sel, err := s.newSelector(selector.Options{
		Multi:          true,
		Prompt:         prompt,
		PreviewCommand: selector.ShellQuote(s.executable) + " preview {}",
		Preview: func(name string) string {
			return preview.String(ctx, s.vault, name, s.previewOptions(true))
		},
		In:  s.stdin,
		Out: s.stderr,
	})
	if err != nil {
		return nil, false, err
	}

	picked, err := sel.Select(ctx, files)
	if err != nil {
		return nil, false, err
	}
	if len(picked) == 0 {
		fmt.Fprintln(s.stdout, "Nothing selected.")
		return nil, false, nil
	}
	return picked, true, nil
}

// describeCmd creates the describe command.
func describeCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Show a vault file's description, generating one if missing",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "regenerate", Aliases: []string{"r"}, Usage: "Replace the stored description"},
		},
		Action: withVault(s, func(c *cli.Context) error {
			ctx := c.Context
			name := c.Args().First()
			if name == "" {
				return outputError(errors.NewInvalidRequest("a vault filename is required"))
			}

			if _, err := s.vault.Record(ctx, name); err != nil {
				return outputError(err)
			}
			path, err := s.vault.Path(name)
			if err != nil {
				return outputError(err)
			}
			if !storage.ExistsAsFile(path) {
				return outputError(errors.NewNotFound(name))
			}

			d := s.describerFor(ctx)
			attached, err := describe.Attach(ctx, s.vault, d, name, path, c.Bool("regenerate"))
			if err != nil {
				return outputError(err)
			}
			fmt.Fprintf(s.stdout, "%s: %s\n", name, attached.Description)
			return nil
		}),
	}
}

// previewCmd creates the preview command run by the fzf preview pane.
func previewCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Print a vault file's description and contents",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Preview a file outside the vault instead"},
			&cli.BoolFlag{Name: "plain", Usage: "Disable syntax highlighting"},
		},
		Action: func(c *cli.Context) error {
			opts := s.previewOptions(!c.Bool("plain"))

			if path := c.String("path"); path != "" {
				return preview.WriteFile(s.stdout, path, opts)
			}

			name := c.Args().First()
			if name == "" {
				return outputError(errors.NewInvalidRequest("a vault filename or --path is required"))
			}
			if err := s.open(c.Bool("verbose")); err != nil {
				return outputError(err)
			}
			return preview.WriteEntry(c.Context, s.stdout, s.vault, name, opts)
		},
	}
}

func (s *session) previewOptions(color bool) preview.Options {
	return preview.Options{
		MaxBytes: s.cfg.Preview.MaxBytes,
		Style:    s.cfg.Preview.Style,
		Color:    color,
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the vault as MCP tools over stdio",
		Action: withVault(s, func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(s.cfg.DisabledTools); len(unknown) > 0 {
				fmt.Fprintf(s.stderr, "warning: unknown tools in disabled_tools: %s\n", strings.Join(unknown, ", "))
			}
			d := s.describerFor(c.Context)
			if err := mcp.Run(s.vault, d, s.cfg, Version, s.logger); err != nil {
				return outputError(err)
			}
			return nil
		}),
	}
}

// uiCmd creates the ui command.
func uiCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Browse the vault in a local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8377, Usage: "Port to listen on"},
		},
		Action: withVault(s, func(c *cli.Context) error {
			srv, err := web.NewServer(s.vault, s.cfg, Version, c.String("bind"), c.Int("port"), s.logger)
			if err != nil {
				return outputError(err)
			}
			if err := web.Run(c.Context, srv, s.logger); err != nil {
				return outputError(err)
			}
			return nil
		}),
	}
}

// Helper functions

// reportFaults prints per-file failures and turns them into an exit error.
func (s *session) reportFaults(faults []vault.FileFault) error {
	if len(faults) == 0 {
		return nil
	}
	for _, f := range faults {
		fmt.Fprintf(s.stderr, "  %s: [%s] %s\n", f.Filename, f.Code, f.Message)
	}
	return cli.Exit(fmt.Sprintf("%d file(s) failed", len(faults)), 1)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var vErr *errors.VaultError
	if stderrors.As(err, &vErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
