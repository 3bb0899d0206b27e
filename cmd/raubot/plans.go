package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dturobocup/raubot/pkg/maneuver"
	"github.com/dturobocup/raubot/pkg/plans"
	"github.com/dturobocup/raubot/pkg/robot"
)

type PlansCommand struct {
	Config string   `long:"config" default:"raubot.json" description:"Configuration file"`
	File   []string `short:"f" long:"file" description:"Also show a YAML maneuver definition"`
}

func (c *PlansCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfigOrDefault(c.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", c.Config, err)
		os.Exit(1)
	}

	var all []*maneuver.Maneuver
	for _, name := range plans.Names() {
		m, err := plans.Lookup(name, cfg.Plans)
		if err != nil {
			return err
		}
		all = append(all, m)
	}
	for _, path := range c.File {
		m, err := plans.Load(path)
		if err != nil {
			return err
		}
		all = append(all, m)
	}

	for i, m := range all {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(headerStyle.Render(m.Name()) + dimStyle.Render("  requires "+m.Requirements().String()))
		fmt.Println(renderSteps(m))
		if msg := m.DoneMessage(); msg != "" {
			fmt.Println(dimStyle.Render("On completion: " + msg))
		}
	}
	return nil
}

func renderSteps(m *maneuver.Maneuver) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableStepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	steps := m.Steps()
	rows := make([][]string, 0, len(steps))
	for i, s := range steps {
		rows = append(rows, []string{
			strconv.Itoa(i),
			s.Name,
			s.Summary,
			s.Exit.String(),
			s.Message,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("#", "Step", "Action", "On exit", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 1 {
				return tableStepStyle
			}
			return tableCellStyle
		})
	return t.Render()
}
