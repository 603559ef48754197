package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v2"

	"github.com/tinygo-org/neopio/animation"
	"github.com/tinygo-org/neopio/neopixel"
)

// Scene is everything needed to simulate a line. It is read from a YAML
// file and then overridden by flags given on the command line.
type Scene struct {
	Protocol   string        `yaml:"protocol"`
	ClockHz    uint32        `yaml:"clock_hz"`
	Cycles     []int         `yaml:"cycles,flow"`
	Layout     string        `yaml:"layout"`
	LEDs       int           `yaml:"leds"`
	Depth      int           `yaml:"depth"`
	Frames     int           `yaml:"frames"`
	Period     time.Duration `yaml:"period"`
	Animation  string        `yaml:"animation"`
	Colors     []string      `yaml:"colors,flow"`
	Brightness float64       `yaml:"brightness"`
	Gamma      bool          `yaml:"gamma"`
	Serial     string        `yaml:"serial"`
	Verbose    bool          `yaml:"verbose"`
}

var defaultGradient = []string{"#0a3306", "#36ff1f"}

func defaultScene() Scene {
	return Scene{
		Protocol:   neopixel.WS2812.Name,
		ClockHz:    125_000_000,
		Layout:     "GRB",
		LEDs:       8,
		Frames:     3,
		Period:     20 * time.Millisecond,
		Animation:  "rainbow",
		Brightness: 1,
	}
}

func loadScene(path string, sc *Scene) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(b, sc); err != nil {
		return fmt.Errorf("scene %s: %w", path, err)
	}
	return nil
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		out := fs.Output()
		fmt.Fprintln(out, "usage: neosim [options]")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "neosim runs the LED program on the state machine emulator and reports the")
		fmt.Fprintln(out, "clock divider, pulse widths and the waveform measured for each frame.")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "log levels are handled by the LOGXI env variables, these are documented at https://github.com/mgutz/logxi")
	}
}

// parseArgs builds the scene from defaults, the optional scene file and
// the flags that were set explicitly, in that order.
func parseArgs(args []string) (Scene, error) {
	fs := flag.NewFlagSet("neosim", flag.ContinueOnError)
	fs.Usage = usage(fs)

	def := defaultScene()
	f := def
	scenePath := fs.String("scene", "", "YAML scene file; flags given explicitly override it")
	fs.StringVar(&f.Protocol, "protocol", def.Protocol, "LED protocol: WS2812, WS2812B, SK6812 or WS2811")
	fs.Var(uint32Value{&f.ClockHz}, "clock", "system clock in Hz")
	cycles := fs.String("cycles", "", "program phases T1,T2,T3 in cycles (default: protocol split)")
	fs.StringVar(&f.Layout, "layout", def.Layout, "channel order, e.g. GRB or GRBW")
	fs.IntVar(&f.LEDs, "leds", def.LEDs, "number of LEDs")
	fs.IntVar(&f.Depth, "depth", def.Depth, "FIFO depth, 8 (joined) or 4")
	fs.IntVar(&f.Frames, "frames", def.Frames, "frames to play, 0 plays until interrupted")
	fs.DurationVar(&f.Period, "period", def.Period, "delay between frames")
	fs.StringVar(&f.Animation, "animation", def.Animation, "rainbow, gradient, palette or chase")
	colors := fs.String("colors", "", "comma separated gradient endpoints or chase color")
	fs.Float64Var(&f.Brightness, "brightness", def.Brightness, "brightness 0..1")
	fs.BoolVar(&f.Gamma, "gamma", def.Gamma, "apply gamma correction")
	fs.StringVar(&f.Serial, "serial", "", "mirror frames to a bridge device on this serial port")
	fs.BoolVar(&f.Verbose, "v", false, "When enabled will print internal logging for this tool")

	if err := fs.Parse(args); err != nil {
		return def, err
	}
	sc := def
	if *scenePath != "" {
		if err := loadScene(*scenePath, &sc); err != nil {
			return sc, err
		}
	}
	var err error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "protocol":
			sc.Protocol = f.Protocol
		case "clock":
			sc.ClockHz = f.ClockHz
		case "cycles":
			sc.Cycles, err = parseInts(*cycles)
		case "layout":
			sc.Layout = f.Layout
		case "leds":
			sc.LEDs = f.LEDs
		case "depth":
			sc.Depth = f.Depth
		case "frames":
			sc.Frames = f.Frames
		case "period":
			sc.Period = f.Period
		case "animation":
			sc.Animation = f.Animation
		case "colors":
			sc.Colors = strings.Split(*colors, ",")
		case "brightness":
			sc.Brightness = f.Brightness
		case "gamma":
			sc.Gamma = f.Gamma
		case "serial":
			sc.Serial = f.Serial
		case "v":
			sc.Verbose = f.Verbose
		}
	})
	return sc, err
}

type uint32Value struct{ p *uint32 }

func (v uint32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v.p), 10)
}

func (v uint32Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*v.p = uint32(n)
	return nil
}

func parseInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("cycles: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (sc Scene) timing() (neopixel.Timing, error) {
	p, ok := neopixel.Protocols[strings.ToUpper(sc.Protocol)]
	if !ok {
		return neopixel.Timing{}, &neopixel.ConfigurationError{Param: "protocol", Reason: "unknown protocol " + sc.Protocol}
	}
	var c neopixel.Cycles
	switch len(sc.Cycles) {
	case 0:
	case 3:
		for _, n := range sc.Cycles {
			if n < 1 || n > 255 {
				return neopixel.Timing{}, &neopixel.ConfigurationError{Param: "cycles", Reason: "phase out of range"}
			}
		}
		c = neopixel.Cycles{T1: uint8(sc.Cycles[0]), T2: uint8(sc.Cycles[1]), T3: uint8(sc.Cycles[2])}
	default:
		return neopixel.Timing{}, &neopixel.ConfigurationError{Param: "cycles", Reason: "want T1,T2,T3"}
	}
	return neopixel.NewTiming(sc.ClockHz, p, c)
}

func (sc Scene) source() (animation.Source, error) {
	switch strings.ToLower(sc.Animation) {
	case "rainbow":
		return animation.Rainbow{Step: 15, Spread: 360 / float64(max(sc.LEDs, 1)), Saturation: 1, Value: 1}, nil
	case "gradient":
		colors := sc.Colors
		if len(colors) == 0 {
			colors = defaultGradient
		}
		if len(colors) != 2 {
			return nil, &neopixel.ConfigurationError{Param: "colors", Reason: "gradient wants two colors"}
		}
		g, err := animation.NewGradient(colors[0], colors[1])
		if err != nil {
			return nil, err
		}
		g.Scroll = 1
		return g, nil
	case "palette":
		return animation.Palette{Colors: animation.Rainbow12, Step: 1}, nil
	case "chase":
		c := animation.Chase{Color: neopixel.Color{R: 255, G: 255, B: 255}, Width: 1, Gap: 3}
		if len(sc.Colors) > 0 {
			col, err := colorful.Hex(sc.Colors[0])
			if err != nil {
				return nil, &neopixel.ConfigurationError{Param: "colors", Reason: "bad hex color", Err: err}
			}
			r, g, b := col.RGB255()
			c.Color = neopixel.Color{R: r, G: g, B: b}
		}
		return c, nil
	}
	return nil, &neopixel.ConfigurationError{Param: "animation", Reason: "unknown animation " + sc.Animation}
}
