package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dturobocup/raubot/pkg/journal"
	"github.com/dturobocup/raubot/pkg/robot"
)

type RunsCommand struct {
	Config string `long:"config" default:"raubot.json" description:"Configuration file"`
	Limit  int    `short:"n" long:"limit" default:"10" description:"Number of runs to list"`
	ID     string `long:"id" description:"Show the transitions of one run"`
}

func (c *RunsCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfigOrDefault(c.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", c.Config, err)
		os.Exit(1)
	}

	if _, err := os.Stat(cfg.Journal.Path); err != nil {
		fmt.Fprintf(os.Stderr, "No journal at %s. Enable journal.enabled in %s to record runs.\n", cfg.Journal.Path, c.Config)
		os.Exit(1)
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.ID != "" {
		return showRun(store, c.ID)
	}
	return listRuns(store, c.Limit)
}

var (
	runsHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	runsCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	outcomeStyles   = map[string]lipgloss.Style{
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1),
		"canceled":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1),
		"failed":    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1),
	}
)

func listRuns(store *journal.Store, limit int) error {
	runs, err := store.Runs(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	outcomes := make([]string, 0, len(runs))
	for _, r := range runs {
		duration := "-"
		if !r.EndedAt.IsZero() {
			duration = r.EndedAt.Sub(r.StartedAt).Round(100 * time.Millisecond).String()
		}
		outcome := r.Outcome
		if outcome == "" {
			outcome = "open"
		}
		outcomes = append(outcomes, outcome)
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strings.Join(r.Plan, ", "),
			strconv.Itoa(r.Transitions),
			duration,
			outcome,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Run", "Started", "Plan", "Transitions", "Duration", "Outcome").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return runsHeaderStyle
			}
			if col == 5 && row >= 0 && row < len(outcomes) {
				if style, ok := outcomeStyles[outcomes[row]]; ok {
					return style
				}
			}
			return runsCellStyle
		})

	fmt.Println(t.Render())
	return nil
}

func showRun(store *journal.Store, id string) error {
	run, err := store.Run(id)
	if errors.Is(err, journal.ErrUnknownRun) {
		fmt.Fprintf(os.Stderr, "Run %s not found.\n", id)
		os.Exit(1)
	}
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Run "+run.ID) + dimStyle.Render("  "+strings.Join(run.Plan, " → ")))
	fmt.Printf("Started %s, outcome %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Outcome)

	transitions, err := store.Transitions(id)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(transitions))
	for _, tr := range transitions {
		rows = append(rows, []string{
			tr.CreatedAt.Sub(run.StartedAt).Round(10 * time.Millisecond).String(),
			strconv.FormatUint(tr.Tick, 10),
			tr.Maneuver,
			tr.FromStep,
			tr.ToStep,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("At", "Tick", "Maneuver", "From", "To").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return runsHeaderStyle
			}
			return runsCellStyle
		})
	fmt.Println(t.Render())

	stalls, err := store.Stalls(id)
	if err != nil {
		return err
	}
	for _, s := range stalls {
		fmt.Println(dimStyle.Render(fmt.Sprintf("stall: %s %s after %d ticks", s.Maneuver, s.Step, s.Ticks)))
	}
	return nil
}
