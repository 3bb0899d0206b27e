package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/dturobocup/raubot/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct {
	Config string `long:"config" default:"raubot.json" description:"Configuration file to write"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("raubot Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := robot.LoadConfigOrDefault(c.Config)
	if err != nil {
		cfg = robot.DefaultConfig()
	}

	// Step 1: Find the wheel bus
	port := scanForBase(cfg)
	cfg.Base.Port = port

	// Step 2: Identify wheels
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Identifying Wheels ━━━"))
	fmt.Println()
	identifyWheels(&cfg.Base)

	// Step 3: Wheel directions
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Wheel Direction ━━━"))
	fmt.Println()
	calibrateDirections(&cfg.Base)

	// Step 4: Capabilities
	fmt.Println()
	askLineSensor(&cfg.Base)

	if err := cfg.SaveTo(c.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", c.Config)
	fmt.Println()
	fmt.Println("Try the course in simulation with: " + headerStyle.Render("raubot simulate"))
	fmt.Println("Run it on the robot with:          " + headerStyle.Render("raubot run"))

	return nil
}

func scanForBase(cfg *robot.Config) string {
	fmt.Println("Scanning for the drive base...")
	fmt.Println()

	bases, err := robot.FindBases(context.Background(), cfg.Base.Calibration, cfg.Base.BaudRate)
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		os.Exit(1)
	}

	if len(bases) == 0 {
		fmt.Printf("No bus with wheel servos %v found.\n", cfg.Base.Calibration.WheelIDs())
		fmt.Println("Make sure the base is connected and powered on.")
		os.Exit(1)
	}

	for _, b := range bases {
		fmt.Printf("  Found wheel servos on %s\n", b.Port)
	}
	if len(bases) == 1 {
		return bases[0].Port
	}

	var options []huh.Option[string]
	for _, b := range bases {
		options = append(options, huh.NewOption(b.Port, b.Port))
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the drive base?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

type wheelServo struct {
	id    int
	servo *feetech.Servo
}

func connectToBase(base robot.BaseConfig) (*feetech.Bus, []wheelServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     base.Port,
		BaudRate: base.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	ids := base.Calibration.WheelIDs()
	lo, hi := robot.IDRange(ids)

	found, err := bus.Scan(ctx, lo, hi)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	models := make(map[int]feetech.FoundServo, len(found))
	for _, s := range found {
		models[s.ID] = s
	}

	var servos []wheelServo
	for _, id := range ids {
		s, ok := models[id]
		if !ok {
			bus.Close()
			return nil, nil, fmt.Errorf("wheel servo %d not found on %s", id, base.Port)
		}
		servos = append(servos, wheelServo{id: id, servo: feetech.NewServo(bus, s.ID, s.Model)})
	}
	return bus, servos, nil
}

// identifyWheels turns each servo a little and asks which wheel moved.
func identifyWheels(base *robot.BaseConfig) {
	bus, servos, err := connectToBase(*base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to base: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx := context.Background()
	assigned := make(map[robot.WheelName]int)

	for _, ws := range servos {
		if len(assigned) == len(robot.AllWheels())-1 {
			// The last servo is the remaining wheel
			for _, name := range robot.AllWheels() {
				if _, ok := assigned[name]; !ok {
					assigned[name] = ws.id
				}
			}
			break
		}

		fmt.Printf("  Turning servo %d...\n", ws.id)
		if err := wiggle(ctx, ws.servo); err != nil {
			fmt.Printf("  Error turning servo %d: %v\n", ws.id, err)
			os.Exit(1)
		}

		var options []huh.Option[robot.WheelName]
		for _, name := range robot.AllWheels() {
			if _, ok := assigned[name]; !ok {
				options = append(options, huh.NewOption(string(name), name))
			}
		}

		var wheel robot.WheelName
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[robot.WheelName]().
					Title(fmt.Sprintf("Which wheel did servo %d turn?", ws.id)).
					Description("Seen from behind the robot").
					Options(options...).
					Value(&wheel),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}
		assigned[wheel] = ws.id
	}

	for name, id := range assigned {
		wc := base.Calibration[name]
		wc.ID = id
		base.Calibration[name] = wc
	}
	fmt.Println(successStyle.Render("Wheels identified:"))
	for _, name := range robot.AllWheels() {
		fmt.Printf("  %-6s servo %d\n", name, base.Calibration[name].ID)
	}
}

// wiggle spins the wheel briefly forth and back in wheel mode.
func wiggle(ctx context.Context, servo *feetech.Servo) error {
	if err := servo.Disable(ctx); err != nil {
		return err
	}
	if err := servo.SetOperatingMode(ctx, feetech.ModeVelocity); err != nil {
		return err
	}
	if err := servo.Enable(ctx); err != nil {
		return err
	}
	defer servo.Disable(ctx)

	// About a quarter turn each way
	speed := 1024
	spinTime := 250 * time.Millisecond
	for _, v := range []int{speed, -speed} {
		if err := servo.SetVelocity(ctx, v); err != nil {
			return err
		}
		time.Sleep(spinTime)
	}
	return servo.SetVelocity(ctx, 0)
}

// calibrateDirections asks the user to push the robot forward and marks
// wheels whose encoder counts down as reversed.
func calibrateDirections(base *robot.BaseConfig) {
	bus, servos, err := connectToBase(*base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to base: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx := context.Background()
	byID := make(map[int]*feetech.Servo, len(servos))
	for _, ws := range servos {
		ws.servo.Disable(ctx)
		byID[ws.id] = ws.servo
	}

	fmt.Println(subHeaderStyle.Render("Push the robot forward"))
	fmt.Println("Roll the robot straight ahead by hand for about half a metre.")
	fmt.Println()

	model := newDirectionModel(base.Calibration, byID)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}

	dm := finalModel.(directionModel)
	for _, name := range robot.AllWheels() {
		wc := base.Calibration[name]
		wc.DriveMode = 0
		if dm.travel[name] < 0 {
			wc.DriveMode = 1
		}
		base.Calibration[name] = wc
	}

	fmt.Println()
	for _, name := range robot.AllWheels() {
		dir := "normal"
		if base.Calibration[name].DriveMode == 1 {
			dir = "reversed"
		}
		fmt.Printf("  %-6s %s\n", name, dir)
	}
}

func askLineSensor(base *robot.BaseConfig) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Is the line sensor fitted?").
				Description("The ramp maneuver needs line following").
				Value(&base.LineSensor),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
}

// Direction calibration TUI model
type directionModel struct {
	calibration robot.Calibration
	servos      map[int]*feetech.Servo
	last        map[robot.WheelName]int
	travel      map[robot.WheelName]int // raw ticks since start
	quitting    bool
}

type tickMsg time.Time

func newDirectionModel(cal robot.Calibration, servos map[int]*feetech.Servo) directionModel {
	return directionModel{
		calibration: cal,
		servos:      servos,
		last:        make(map[robot.WheelName]int),
		travel:      make(map[robot.WheelName]int),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m directionModel) Init() tea.Cmd {
	return tick()
}

func (m directionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		// Read positions from servos
		ctx := context.Background()
		for _, name := range robot.AllWheels() {
			wc := m.calibration[name]
			servo := m.servos[wc.ID]
			if servo == nil {
				continue
			}
			pos, err := servo.Position(ctx)
			if err != nil {
				continue
			}
			if prev, ok := m.last[name]; ok {
				m.travel[name] += wc.Delta(prev, pos)
			}
			m.last[name] = pos
		}
		return m, tick()
	}

	return m, nil
}

func (m directionModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	// Table styles
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableWheelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableForwardStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableReverseStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	wheels := robot.AllWheels()
	rows := make([][]string, 0, len(wheels))
	reversed := make([]bool, 0, len(wheels))
	for _, name := range wheels {
		wc := m.calibration[name]
		ticks := m.travel[name]
		meters := robot.WheelCalibration{TicksPerRev: wc.TicksPerRev, RadiusM: wc.RadiusM}.TicksToMeters(ticks)
		dir := "forward"
		if ticks < 0 {
			dir = "reversed"
		}
		reversed = append(reversed, ticks < 0)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", wc.ID),
			fmt.Sprintf("%d", m.last[name]),
			fmt.Sprintf("%+d", ticks),
			fmt.Sprintf("%+.3f", meters),
			dir,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Wheel", "ID", "Position", "Ticks", "Travel (m)", "Mounting").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableWheelStyle
			case 5:
				if row >= 0 && row < len(reversed) && reversed[row] {
					return tableReverseStyle
				}
				return tableForwardStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}
