package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/arenvio/heatshell/internal/envelope"
)

// referenceBuilding is the 5x4x3 m cabin used across the docs: insulated
// roof, brick wall with one glazed opening, concrete slab.
func referenceBuilding() (*envelope.Building, error) {
	b, err := envelope.NewBuilding(5, 4)
	if err != nil {
		return nil, err
	}

	addLayer := func(st *envelope.Stack, conductivity, thickness float64) error {
		m, err := envelope.NewMaterial(conductivity, thickness)
		if err != nil {
			return err
		}
		return st.Add(m)
	}

	roof := envelope.NewRoof()
	if err := addLayer(&roof.Stack, 0.04, 0.2); err != nil {
		return nil, err
	}
	if err := b.SetRoof(roof); err != nil {
		return nil, err
	}

	side, err := envelope.NewSide(3)
	if err != nil {
		return nil, err
	}
	wall := envelope.NewWall()
	if err := addLayer(&wall.Stack, 0.84, 0.2); err != nil {
		return nil, err
	}
	if err := side.SetWall(wall); err != nil {
		return nil, err
	}
	window, err := envelope.NewOpening(2)
	if err != nil {
		return nil, err
	}
	if err := addLayer(&window.Stack, 1.0, 0.004); err != nil {
		return nil, err
	}
	if err := side.AddOpening(window); err != nil {
		return nil, err
	}
	if err := b.SetSide(side); err != nil {
		return nil, err
	}

	floor := envelope.NewFloor()
	if err := addLayer(&floor.Stack, 1.75, 0.25); err != nil {
		return nil, err
	}
	if err := b.SetFloor(floor); err != nil {
		return nil, err
	}

	return b, nil
}

// SweepFlux sweeps the outside temperature from `from` to `to` and writes one
// CSV row per step with the per-part and total fluxes.
func SweepFlux(filename string, inside, underground, from, to, step float64) error {
	if step <= 0 {
		return fmt.Errorf("step must be positive, got %v", step)
	}

	b, err := referenceBuilding()
	if err != nil {
		return fmt.Errorf("build envelope: %v", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"temperature_outside", "roof_flux", "side_flux", "floor_flux", "total_flux"}); err != nil {
		return fmt.Errorf("write CSV header: %v", err)
	}

	for outside := from; outside <= to; outside += step {
		deltaAir := inside - outside
		if deltaAir < 0 {
			deltaAir = -deltaAir
		}
		deltaGround := inside - underground
		if deltaGround < 0 {
			deltaGround = -deltaGround
		}

		roofFlux, err := b.Roof().Flux(deltaAir)
		if err != nil {
			return fmt.Errorf("roof flux: %v", err)
		}
		sideFlux, err := b.Side().Flux(deltaAir)
		if err != nil {
			return fmt.Errorf("side flux: %v", err)
		}
		floorFlux, err := b.Floor().Flux(deltaGround)
		if err != nil {
			return fmt.Errorf("floor flux: %v", err)
		}

		if err := writer.Write([]string{
			fmt.Sprintf("%.2f", outside),
			fmt.Sprintf("%.2f", roofFlux),
			fmt.Sprintf("%.2f", sideFlux),
			fmt.Sprintf("%.2f", floorFlux),
			fmt.Sprintf("%.2f", roofFlux+sideFlux+floorFlux),
		}); err != nil {
			return fmt.Errorf("write CSV record: %v", err)
		}
	}

	return nil
}

func main() {
	if err := SweepFlux("heatshell.csv", 20.0, 15.0, -10.0, 20.0, 0.5); err != nil {
		log.Fatal(err)
	}
}
