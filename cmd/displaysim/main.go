// Command displaysim runs the display service against simulated register
// space and exposes a small REPL for poking it: configure the pipeline,
// enable a mode, switch patterns, and watch frame events arrive from the
// simulated interrupt line.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"

	"displaycode-go/bus"
	"displaycode-go/drivers/tpg"
	"displaycode-go/drivers/vtc"
	"displaycode-go/pipeline"
	"displaycode-go/regio"
	"displaycode-go/services/display"
	"displaycode-go/timing"
	"displaycode-go/types"
	"displaycode-go/x/timex"
)

var modes = map[string]types.DisplayMode{
	"720": {
		Clock:    74250,
		HDisplay: 1280, HSyncStart: 1390, HSyncEnd: 1430, HTotal: 1650,
		VDisplay: 720, VSyncStart: 725, VSyncEnd: 730, VTotal: 750,
		Flags: types.ModeFlagPHSync | types.ModeFlagPVSync,
	},
	"1080": {
		Clock:    148500,
		HDisplay: 1920, HSyncStart: 2008, HSyncEnd: 2052, HTotal: 2200,
		VDisplay: 1080, VSyncStart: 1084, VSyncEnd: 1089, VTotal: 1125,
		Flags: types.ModeFlagPHSync | types.ModeFlagPVSync,
	},
}

var formats = map[string]types.BusFormat{
	"rgb":    types.BusFmtRBG888_1X24,
	"yuv422": types.BusFmtUYVY8_1X16,
	"yuv444": types.BusFmtVUY8_1X24,
}

// irqLine ties the simulated device to the pipeline's interrupt handler.
// Each frame period it latches frame-done while the generator is running,
// and fires the handler when the interrupt enables are set.
type irqLine struct {
	mem *regio.Mem

	mu   sync.Mutex
	pipe *pipeline.Pipeline
}

func (l *irqLine) attach(p *pipeline.Pipeline) {
	l.mu.Lock()
	l.pipe = p
	l.mu.Unlock()
}

func (l *irqLine) run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if l.mem.Read32(0x0000)&1 == 0 {
				continue // generator not running
			}
			l.mem.Latch(0x000c, tpg.IRQFrameDone)
			l.mu.Lock()
			p := l.pipe
			l.mu.Unlock()
			if p == nil {
				continue
			}
			if l.mem.Read32(0x0004)&1 != 0 && l.mem.Read32(0x0008)&1 != 0 {
				p.HandleIRQ()
			}
		}
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Simulated register space.
	genMem := regio.NewMem()
	genMem.SetW1C(0x000c)
	vtcMem := regio.NewMem()

	reg := timing.NewRegistry()
	reg.Init()
	defer reg.Shutdown()
	if _, err := vtc.New("vtc0", vtcMem).Register(reg); err != nil {
		fmt.Fprintln(os.Stderr, "vtc register:", err)
		os.Exit(1)
	}

	line := &irqLine{mem: genMem}

	b := bus.NewBus(32)
	svcConn := b.NewConnection("display")
	go display.Run(ctx, svcConn, display.Hardware{
		Gen:      tpg.New(genMem),
		Registry: reg,
		Attach:   line.attach,
	})

	// 60 Hz frame engine regardless of mode; close enough for a REPL.
	go line.run(ctx, timex.FramePeriod(74250, 1650, 750))

	ui := b.NewConnection("ui")
	defer ui.Disconnect()

	// Print service state changes and frame events as they happen.
	stateSub := ui.Subscribe(bus.Topic{"display", "state"})
	frameSub := ui.Subscribe(bus.Topic{"display", "frame"})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-stateSub.Channel():
				fmt.Printf("\r[state] %s\n> ", jsonLine(m.Payload))
			case m := <-frameSub.Channel():
				var ev types.FrameEvent
				remarshal(m.Payload, &ev)
				if ev.Seq%60 == 0 {
					fmt.Printf("\r[frame] seq=%d\n> ", ev.Seq)
				}
			}
		}
	}()

	fmt.Println("displaysim; try: config yuv422 vtc0 color-bars / enable 1080 / flip / status / quit")
	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for sc.Scan() {
		args, err := shlex.Split(sc.Text())
		if err != nil {
			fmt.Println("parse:", err)
			fmt.Print("> ")
			continue
		}
		if len(args) == 0 {
			fmt.Print("> ")
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		dispatch(ui, args)
		fmt.Print("> ")
	}
}

func dispatch(ui *bus.Connection, args []string) {
	switch args[0] {
	case "config":
		if len(args) < 2 {
			fmt.Println("usage: config <rgb|yuv422|yuv444> [timing-node] [pattern]")
			return
		}
		f, ok := formats[args[1]]
		if !ok {
			fmt.Println("unknown format", args[1])
			return
		}
		cfg := types.DisplayConfig{BusFormat: f}
		if len(args) > 2 {
			cfg.TimingNode = args[2]
		}
		if len(args) > 3 {
			cfg.Pattern = args[3]
		}
		ui.Publish(ui.NewMessage(bus.Topic{"config", "display"}, cfg, false))

	case "enable":
		name := "1080"
		if len(args) > 1 {
			name = args[1]
		}
		mode, ok := modes[name]
		if !ok {
			fmt.Println("unknown mode", name)
			return
		}
		request(ui, "enable", types.EnableReq{Mode: mode})

	case "disable", "status", "flip", "pattern_get":
		request(ui, args[0], nil)

	case "pattern":
		if len(args) < 2 {
			fmt.Println("patterns:", strings.Join(tpg.PatternNames(), " "))
			return
		}
		request(ui, "pattern_set", types.PatternSet{Name: args[1]})

	default:
		fmt.Println("unknown command", args[0])
	}
}

func request(ui *bus.Connection, verb string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	reply, err := ui.RequestWait(ctx,
		ui.NewMessage(bus.Topic{"display", "control", verb}, payload, false))
	if err != nil {
		fmt.Println(verb+":", err)
		return
	}
	fmt.Println(verb+":", jsonLine(reply.Payload))
}

func jsonLine(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func remarshal(src, dst any) {
	b, err := json.Marshal(src)
	if err != nil {
		return
	}
	_ = json.Unmarshal(b, dst)
}
