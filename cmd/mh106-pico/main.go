//go:build tinygo

// Command mh106-pico is the emulator firmware for an RP2040 board wired to
// the MH106 socket. It runs the blank logic with the schematic wiring.
package main

import (
	"context"
	"time"

	"github.com/sweeney/mh106/internal/compose"
	"github.com/sweeney/mh106/internal/gpio"
	"github.com/sweeney/mh106/internal/logic"
	"github.com/sweeney/mh106/internal/loop"
	"github.com/sweeney/mh106/internal/shiftreg"
)

func main() {
	board := gpio.OpenMachine()
	lines := board.Lines()

	sampler, err := gpio.NewSampler(lines.Inputs)
	if err != nil {
		halt("init sampler", err)
	}
	driver, err := shiftreg.NewDriver(lines)
	if err != nil {
		halt("init driver", err)
	}

	lp := loop.New(sampler, logic.Blank, compose.New(compose.Schematic, driver), driver)
	if err := lp.Run(context.Background()); err != nil {
		driver.Clear()
		halt("loop", err)
	}
}

// halt reports a fatal error on the console and parks the core.
func halt(what string, err error) {
	for {
		println("fatal:", what+":", err.Error())
		time.Sleep(5 * time.Second)
	}
}
