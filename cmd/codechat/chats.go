// ABOUTME: Offline commands that read or edit chats directly in the database
// ABOUTME: chats, history, rename and export work without a running server

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/codechat/internal/store"
)

const listTimeLayout = "2006-01-02 15:04"

// withStore opens the configured database for the duration of fn.
func withStore(fn func(s store.Store) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func newChatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List chats, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s store.Store) error {
				return listChats(cmd.Context(), s, cmd.OutOrStdout())
			})
		},
	}
}

func listChats(ctx context.Context, s store.Store, out io.Writer) error {
	chats, err := s.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("listing chats: %w", err)
	}
	if len(chats) == 0 {
		fmt.Fprintln(out, "No chats yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCREATED\tUPDATED")
	for _, c := range chats {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Title,
			c.CreatedAt.Local().Format(listTimeLayout),
			c.UpdatedAt.Local().Format(listTimeLayout))
	}
	return w.Flush()
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <chat-id>",
		Short: "Print a chat's messages and generated file names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "chat")
			if err != nil {
				return err
			}
			return withStore(func(s store.Store) error {
				return printHistory(cmd.Context(), s, id, cmd.OutOrStdout())
			})
		},
	}
}

func printHistory(ctx context.Context, s store.Store, chatID int64, out io.Writer) error {
	chat, err := s.GetChat(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("chat %d not found", chatID)
	}
	if err != nil {
		return fmt.Errorf("getting chat: %w", err)
	}

	messages, err := s.ListMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("listing messages: %w", err)
	}

	bold := color.New(color.Bold)
	bold.Fprintf(out, "%s\n\n", chat.Title)

	user := color.New(color.FgGreen)
	assistant := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	for _, m := range messages {
		who := user
		if m.Category == store.CategoryAssistant {
			who = assistant
		}
		who.Fprintf(out, "[%s]", m.Category)
		gray.Fprintf(out, " #%d %s\n", m.ID, m.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintln(out, m.Content)

		if m.Category != store.CategoryAssistant {
			fmt.Fprintln(out)
			continue
		}
		files, err := s.ListGeneratedFiles(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("listing files for message %d: %w", m.ID, err)
		}
		for _, f := range files {
			gray.Fprintf(out, "  file #%d: %s (%d bytes)\n", f.ID, f.Name, len(f.Content))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <chat-id> <title>",
		Short: "Rename a chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "chat")
			if err != nil {
				return err
			}
			return withStore(func(s store.Store) error {
				if err := s.RenameChat(cmd.Context(), id, args[1]); err != nil {
					return fmt.Errorf("renaming chat: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Chat %d renamed to %q\n", id, args[1])
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <file-id>",
		Short: "Write a generated file to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "file")
			if err != nil {
				return err
			}
			return withStore(func(s store.Store) error {
				path, err := exportFile(cmd.Context(), s, id, output)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: the file's name in the current directory)")
	return cmd
}

// exportFile writes file id to output, or to its base name when output is empty.
func exportFile(ctx context.Context, s store.Store, id int64, output string) (string, error) {
	f, err := s.GetGeneratedFile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("file %d not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("getting file: %w", err)
	}

	if output == "" {
		output = filepath.Base(filepath.Clean("/" + f.Name))
		if output == "/" || output == "." {
			output = "file"
		}
	}
	if err := os.WriteFile(output, f.Content, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return output, nil
}
