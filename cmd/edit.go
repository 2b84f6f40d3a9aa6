package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/interval"
)

var (
	flagEditIndex     int
	flagEditStart     string
	flagEditEnd       string
	flagEditWorkspace string
	flagEditDelete    bool
	flagEditLast      int
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change or delete a saved interval of the current year",
	Long: "Without --index, pick the interval from a list of recent ones.\n" +
		"Times use the format " + cli.ClockLayout + " in local time.",
	Args: cobra.NoArgs,
	RunE: runEdit,
}

func init() {
	editCmd.Flags().IntVar(&flagEditIndex, "index", -1, "Index of the interval, as shown by the picker")
	editCmd.Flags().StringVar(&flagEditStart, "start", "", "New start time")
	editCmd.Flags().StringVar(&flagEditEnd, "end", "", "New end time")
	editCmd.Flags().StringVar(&flagEditWorkspace, "set-workspace", "", "New workspace labels, separated by \""+interval.Delimiter+"\"")
	editCmd.Flags().BoolVar(&flagEditDelete, "delete", false, "Delete the interval")
	editCmd.Flags().IntVarP(&flagEditLast, "last", "n", 30, "Intervals offered by the picker")
	rootCmd.AddCommand(editCmd)
}

type intervalEdit struct {
	Start     string
	End       string
	Workspace string
	Delete    bool
}

func runEdit(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	// Indexes refer to the saved history, so pending time is written first.
	if err := s.save(ctx); err != nil {
		return err
	}
	saved := s.tr.Saved()
	if len(saved) == 0 {
		fmt.Println("  No saved intervals this year.")
		return nil
	}

	loc := time.Local
	idx := flagEditIndex
	var e intervalEdit
	if idx < 0 {
		idx, e, err = pickEdit(saved, loc)
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Nothing changed.")
			return nil
		}
		if err != nil {
			return err
		}
	} else {
		if idx >= len(saved) {
			return fmt.Errorf("index %d out of range (0-%d)", idx, len(saved)-1)
		}
		e = intervalEdit{
			Start:     flagEditStart,
			End:       flagEditEnd,
			Workspace: flagEditWorkspace,
			Delete:    flagEditDelete,
		}
	}

	before := describeInterval(saved[idx], loc)
	if e.Delete {
		if err := s.tr.Delete(ctx, idx); err != nil {
			return err
		}
		fmt.Printf("  Deleted %s\n", before)
		return nil
	}

	next, err := editedInterval(saved[idx], e, loc)
	if err != nil {
		return err
	}
	if err := s.tr.Update(ctx, idx, next); err != nil {
		return err
	}
	fmt.Printf("  %s\n  → %s\n", before, describeInterval(next, loc))
	return nil
}

// editedInterval applies the non-empty fields of e to iv.
func editedInterval(iv interval.Interval, e intervalEdit, loc *time.Location) (interval.Interval, error) {
	out := iv
	if strings.TrimSpace(e.Start) != "" {
		ms, err := cli.ParseClock(e.Start, loc)
		if err != nil {
			return iv, fmt.Errorf("start: %w", err)
		}
		out.Start = ms
	}
	if strings.TrimSpace(e.End) != "" {
		ms, err := cli.ParseClock(e.End, loc)
		if err != nil {
			return iv, fmt.Errorf("end: %w", err)
		}
		out.End = ms
	}
	if strings.TrimSpace(e.Workspace) != "" {
		out.Labels = interval.ParseLabels(e.Workspace)
	}
	if err := out.Validate(); err != nil {
		return iv, err
	}
	return out, nil
}

func describeInterval(iv interval.Interval, loc *time.Location) string {
	return fmt.Sprintf("%s → %s  %s (%s)",
		cli.FormatClock(iv.Start, loc),
		iv.EndTime(loc).Format("15:04:05"),
		iv.Labels,
		cli.FormatDuration(iv.Duration()))
}

// pickEdit asks for an interval among the most recent ones, then for the
// change to make.
func pickEdit(saved []interval.Interval, loc *time.Location) (int, intervalEdit, error) {
	first := 0
	if flagEditLast > 0 && len(saved) > flagEditLast {
		first = len(saved) - flagEditLast
	}
	opts := make([]huh.Option[int], 0, len(saved)-first)
	for i := len(saved) - 1; i >= first; i-- {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%3d  %s", i, describeInterval(saved[i], loc)), i))
	}

	idx := len(saved) - 1
	if err := huh.NewSelect[int]().
		Title("Interval").
		Options(opts...).
		Value(&idx).
		Run(); err != nil {
		return 0, intervalEdit{}, err
	}

	iv := saved[idx]
	e := intervalEdit{
		Start:     cli.FormatClock(iv.Start, loc),
		End:       cli.FormatClock(iv.End, loc),
		Workspace: iv.Labels.String(),
	}
	validClock := func(s string) error {
		_, err := cli.ParseClock(s, loc)
		return err
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete this interval?").
				Description(describeInterval(iv, loc)).
				Affirmative("Delete").
				Negative("Edit").
				Value(&e.Delete),
		),
		huh.NewGroup(
			huh.NewInput().Title("Start").Value(&e.Start).Validate(validClock),
			huh.NewInput().Title("End").Value(&e.End).Validate(validClock),
			huh.NewInput().
				Title("Workspace").
				Description("Several labels are separated by \"" + interval.Delimiter + "\"").
				Value(&e.Workspace),
		).WithHideFunc(func() bool { return e.Delete }),
	).WithTheme(huh.ThemeCharm()).Run()
	return idx, e, err
}
