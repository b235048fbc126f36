package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hydroponics/host/serial"
	"hydroponics/host/sim"
	"hydroponics/protocol"
)

// Button hold times in board time
const (
	shortPress = 200 * time.Millisecond
	longPress  = 1500 * time.Millisecond
)

var (
	simOpts = struct {
		duration  time.Duration
		speed     float64
		lostPower bool
		noDisplay bool
		noTrace   bool
		keys      bool
	}{}

	simCmd = &cobra.Command{
		Use:   "sim",
		Short: "Run the firmware on a simulated board",
		Long: `Run the controller firmware against simulated peripherals: a DS3231 clock
and an SSD1306 panel on the I2C bus, the analog inputs, the LED, the beeper,
the button and the light. The trace is decoded and printed, and the panel's
status band is drawn periodically.

With --keys, lines on stdin press the button: "p" short, "l" long, "q" quits.`,
		RunE: runSim,
	}
)

func init() {
	simCmd.Flags().DurationVarP(&simOpts.duration, "duration", "t", 0, "Stop after this long (default: until interrupted)")
	simCmd.Flags().Float64VarP(&simOpts.speed, "speed", "s", 0, "Tick rate multiplier (default from config)")
	simCmd.Flags().BoolVar(&simOpts.lostPower, "lost-power", false, "Start with the clock's oscillator stop flag set")
	simCmd.Flags().BoolVar(&simOpts.noDisplay, "no-display", false, "Leave the panel off the bus")
	simCmd.Flags().BoolVarP(&simOpts.noTrace, "quiet", "q", false, "Do not print trace events")
	simCmd.Flags().BoolVarP(&simOpts.keys, "keys", "k", false, "Read button presses from stdin")
}

// lockedWriter serialises output from the loop and the command goroutines
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	simCfg := cfg.Simulation

	busClock, err := simCfg.BusFrequency()
	if err != nil {
		return err
	}
	adcTime, err := simCfg.ADCTime()
	if err != nil {
		return err
	}
	renderEvery, err := simCfg.Render()
	if err != nil {
		return err
	}
	start, err := simCfg.StartTime(time.Now())
	if err != nil {
		return err
	}

	speed := simCfg.Speed
	if simOpts.speed > 0 {
		speed = simOpts.speed
	}

	out := &lockedWriter{w: cmd.OutOrStdout()}

	opts := sim.Options{
		BusClock:  busClock,
		ADCTime:   adcTime,
		Speed:     speed,
		Time:      start,
		LostPower: simCfg.RTCLostPower || simOpts.lostPower,
		NoDisplay: !*simCfg.Display || simOpts.noDisplay,
	}
	if !simOpts.noTrace {
		monitor := serial.NewMonitor(func(seq uint8, evt protocol.TraceEvent) {
			printEvent(out, seq, evt)
		})
		opts.Trace = monitor.Feed
	}

	board, err := sim.NewBoard(opts)
	if err != nil {
		return err
	}
	board.ADC.SetValue(board.Pins.LightSensor, simCfg.LightSensor)

	fmt.Fprintf(out, "Simulating at %v bus clock, %gx speed, clock starts %s\n",
		busClock, speed, start.Format("15:04:05"))
	if err := board.Start(); err != nil {
		fmt.Fprintf(out, "Startup failed: %v\n", err)
	} else if board.Firmware.LostPower() {
		fmt.Fprintln(out, "Clock lost power; time reset")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if simOpts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, simOpts.duration)
		defer cancel()
	}
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		renderLoop(ctx, board, renderEvery, out)
	}()
	if simOpts.keys {
		go readKeys(cmd.InOrStdin(), board, speed, quit)
	}

	err = board.Run(ctx)
	quit()
	wg.Wait()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// renderLoop draws the status band and the outputs every interval
func renderLoop(ctx context.Context, board *sim.Board, every time.Duration, out io.Writer) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var frame bytes.Buffer
		err := board.Inspect(ctx, func() {
			fw := board.Firmware
			fmt.Fprintf(&frame, "display=%s led=%04x light=%d sensor=%d\n",
				fw.Display.State(), fw.LED.Current(), board.PWM.Duty(board.Pins.Light),
				fw.Reading(board.Pins.LightSensor))
			if board.Panel.On {
				board.Panel.Render(&frame, 0, 1)
			}
		})
		if err != nil {
			return
		}
		out.Write(frame.Bytes())
	}
}

// readKeys turns stdin lines into button presses
func readKeys(in io.Reader, board *sim.Board, speed float64, quit context.CancelFunc) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "p":
			hold(board, shortPress, speed)
		case "l":
			hold(board, longPress, speed)
		case "q":
			quit()
			return
		}
	}
}

// hold pulls the button low for d of board time
func hold(board *sim.Board, d time.Duration, speed float64) {
	pin := board.Pins.Button
	board.GPIO.Drive(pin, false)
	time.AfterFunc(time.Duration(float64(d)/speed), func() {
		board.GPIO.Drive(pin, true)
	})
}
