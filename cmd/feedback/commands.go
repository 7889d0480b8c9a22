package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alem-hub/feedback-helper/internal/application/session"
	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
	"github.com/alem-hub/feedback-helper/internal/infrastructure/export"
)

// rootOptions are the persistent flags.
type rootOptions struct {
	configPath string
	file       string
	verbose    bool
	events     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "feedback",
		Short:         "Write per-student feedback for an assignment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "feedback.yaml", "configuration file")
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "assignment snapshot (.fht)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&opts.events, "events", false, "print events as JSON lines")

	phraseCmd := &cobra.Command{
		Use:   "phrase",
		Short: "Manage a heading's custom phrases",
	}
	phraseCmd.AddCommand(
		newPhraseAddCmd(opts),
		newPhraseDeleteCmd(opts),
		newPhraseMoveCmd(opts),
	)

	root.AddCommand(
		newCreateCmd(opts),
		newAddStudentCmd(opts),
		newSetSectionCmd(opts),
		newSetGradeCmd(opts),
		newRenameHeadingCmd(opts),
		newStyleCmd(opts),
		phraseCmd,
		newExportCmd(opts),
		newHistogramCmd(opts),
		newShowCmd(opts),
	)
	return root
}

// withApp wires the application and closes it after fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	err = fn(ctx, a)
	if cerr := a.close(ctx); err == nil {
		err = cerr
	}
	return err
}

// withAssignment loads --file and runs fn on it.
func withAssignment(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, s *session.Session) error) error {
	if opts.file == "" {
		return errors.New("--file is required")
	}
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		if _, err := a.session.LoadAssignment(ctx, opts.file); err != nil {
			return err
		}
		return fn(ctx, a.session)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATE
// ══════════════════════════════════════════════════════════════════════════════

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		title        string
		headings     []string
		headingsFile string
		students     string
		dir          string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new assignment",
		Example: `  feedback create --title CS2101-P2 --dir ./p2 \
    --heading Code --heading "Report quality" --heading Overall --students roster.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(headings, "\n")
			if headingsFile != "" {
				data, err := readInput(cmd.InOrStdin(), headingsFile)
				if err != nil {
					return err
				}
				text += "\n" + data
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				style, err := a.cfg.ExportStyle()
				if err != nil {
					return err
				}
				created, err := a.session.CreateAssignment(ctx, session.CreateAssignmentCommand{
					Title:           title,
					HeadingsText:    text,
					StudentListPath: students,
					Directory:       dir,
					Style:           style,
				})
				if err != nil {
					return err
				}
				if err := a.session.Flush(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %q with %d students and %d headings\n",
					created.Title(), len(created.StudentIDs()), len(created.Headings()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "assignment title")
	cmd.Flags().StringArrayVar(&headings, "heading", nil, "heading name (repeatable)")
	cmd.Flags().StringVar(&headingsFile, "headings-file", "", "file with one heading per line, - for stdin")
	cmd.Flags().StringVar(&students, "students", "", "student list file")
	cmd.Flags().StringVar(&dir, "dir", ".", "assignment directory")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// EDITING
// ══════════════════════════════════════════════════════════════════════════════

func newAddStudentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-student <id>",
		Short: "Add a student with blank feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				_, err := s.AddStudent(ctx, args[0])
				return err
			})
		},
	}
}

func newSetSectionCmd(opts *rootOptions) *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "set-section <student> <heading> [text]",
		Short: "Replace the text of one feedback section",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.NewStudentID(args[0])
			if err != nil {
				return err
			}
			var text string
			switch {
			case len(args) == 3:
				text = args[2]
			case fromFile != "":
				if text, err = readInput(cmd.InOrStdin(), fromFile); err != nil {
					return err
				}
			default:
				return errors.New("give the text as an argument or with --from-file")
			}
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				return s.UpdateFeedbackSection(ctx, id, args[1], text)
			})
		},
	}
	cmd.Flags().StringVar(&fromFile, "from-file", "", "read the text from a file, - for stdin")
	return cmd
}

func newSetGradeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-grade <student> <grade>",
		Short: "Set a student's grade (0 to 20)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.NewStudentID(args[0])
			if err != nil {
				return err
			}
			grade, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid grade %q: %w", args[1], err)
			}
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				return s.UpdateGrade(ctx, id, grade)
			})
		},
	}
}

func newRenameHeadingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-heading <old> <new>",
		Short: "Rename a heading in every document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				return s.RenameHeading(ctx, args[0], args[1])
			})
		},
	}
}

func newStyleCmd(opts *rootOptions) *cobra.Command {
	var (
		prefix     string
		underline  string
		blankLines int
		marker     string
	)
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Change the export style; unset flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				a, err := s.Assignment()
				if err != nil {
					return err
				}
				cur := a.Style()
				flags := cmd.Flags()
				if !flags.Changed("prefix") {
					prefix = cur.HeadingPrefix
				}
				if !flags.Changed("underline") {
					underline = cur.UnderlineString()
				}
				if !flags.Changed("blank-lines") {
					blankLines = cur.BlankLines
				}
				if !flags.Changed("marker") {
					marker = cur.LineMarker
				}
				style, err := assignment.NewExportStyle(prefix, underline, blankLines, marker)
				if err != nil {
					return err
				}
				return s.UpdateStyle(ctx, style)
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "heading prefix")
	cmd.Flags().StringVar(&underline, "underline", "", "underline character, empty for none")
	cmd.Flags().IntVar(&blankLines, "blank-lines", 1, "blank lines after each section")
	cmd.Flags().StringVar(&marker, "marker", "", "bullet line marker")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// CUSTOM PHRASES
// ══════════════════════════════════════════════════════════════════════════════

func newPhraseAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <heading> <text>",
		Short: "Append a custom phrase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				return s.AddCustomPhrase(ctx, args[0], args[1])
			})
		},
	}
}

func newPhraseDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <heading> <text>",
		Short: "Remove a custom phrase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				return s.DeleteCustomPhrase(ctx, args[0], args[1])
			})
		},
	}
}

func newPhraseMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <heading> <text> <delta>",
		Short: "Move a custom phrase up (negative) or down (positive)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid delta %q: %w", args[2], err)
			}
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				from, to, err := s.ReorderCustomPhrase(ctx, args[0], args[1], delta)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "moved from %d to %d\n", from+1, to+1)
				return nil
			})
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTPUT
// ══════════════════════════════════════════════════════════════════════════════

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write one feedback file per student plus grades.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				dir, err := s.ExportAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			})
		},
	}
}

func newHistogramCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "histogram",
		Short: "Print the grade distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				h, err := s.Histogram()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, row := range h.Rows() {
					if row.Count == 0 && !all {
						continue
					}
					fmt.Fprintf(out, "%5s %3d %s\n", export.FormatGrade(row.Grade), row.Count, strings.Repeat("#", row.Count))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include empty buckets")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarise the assignment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return fmt.Errorf("--top must not be negative, got %d", top)
			}
			return withAssignment(cmd, opts, func(ctx context.Context, s *session.Session) error {
				a, err := s.Assignment()
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), a, top)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "most used phrases to list per heading")
	return cmd
}

func printSummary(out io.Writer, a *assignment.Assignment, top int) {
	fmt.Fprintf(out, "%s (%s)\n\n", a.Title(), a.Directory())

	fmt.Fprintln(out, "Students:")
	for _, d := range a.Documents() {
		fmt.Fprintf(out, "  %-20s %s\n", d.StudentID(), export.FormatGrade(d.Grade()))
	}

	for _, h := range a.Headings() {
		fmt.Fprintf(out, "\n%s\n", h)
		phrases := a.Phrases(h)
		if len(phrases) > top {
			phrases = phrases[:top]
		}
		for _, p := range phrases {
			fmt.Fprintf(out, "  %3d  %s\n", p.Count(), p.Text())
		}
		for i, c := range a.CustomPhrases(h) {
			fmt.Fprintf(out, "  #%-2d  %s\n", i+1, c)
		}
	}
}

// readInput reads a whole file, or stdin for "-".
func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
