package pricing

import (
	"fmt"
	"math"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/entity"
)

// Coverage constants for quantity estimation. Partial units cannot be
// purchased, so every derived quantity rounds up.
const (
	ShingleBundlesPerSquare = 3.0
	UnderlaymentSqFtPerRoll = 400.0
	StarterEaveLFPerBundle  = 100.0
	HipRidgeLFPerBundle     = 20.0
	DripEdgeLFPerPiece      = 10.0
	IceWaterLFPerRoll       = 65.0
	ValleyLFPerPiece        = 10.0
	NailsSqFtPerCoil        = 120.0
)

// DefaultWasteFactor pads shingle squares before bundle rounding.
const DefaultWasteFactor = 0.10

// EstimateQuantities derives expected material quantities from roof
// measurements. Pure; zero measurements produce no entry for that material.
func EstimateQuantities(m entity.RoofMeasurements, wasteFactor float64) []entity.ExpectedQuantity {
	if wasteFactor <= 0 {
		wasteFactor = DefaultWasteFactor
	}

	var out []entity.ExpectedQuantity
	add := func(category constants.MaterialCategory, qty float64, unit constants.Unit, basis string) {
		if qty <= 0 {
			return
		}
		out = append(out, entity.ExpectedQuantity{
			Category: string(category),
			Quantity: int(math.Ceil(qty)),
			Unit:     string(unit),
			Basis:    basis,
		})
	}

	if m.TotalArea > 0 {
		squares := (m.TotalArea / 100) * (1 + wasteFactor)
		add(constants.CatShingles, squares*ShingleBundlesPerSquare, constants.UnitBundle,
			fmt.Sprintf("%.1f squares incl. %.0f%% waste @ %.0f bundles/sq", squares, wasteFactor*100, ShingleBundlesPerSquare))
		add(constants.CatUnderlayment, m.TotalArea/UnderlaymentSqFtPerRoll, constants.UnitRoll,
			fmt.Sprintf("%.0f sq ft @ 1 roll/%.0f sq ft", m.TotalArea, UnderlaymentSqFtPerRoll))
		add(constants.CatFasteners, m.TotalArea/NailsSqFtPerCoil, constants.UnitEach,
			fmt.Sprintf("%.0f sq ft @ 1 coil/%.0f sq ft", m.TotalArea, NailsSqFtPerCoil))
	}
	if m.EaveLength > 0 {
		add(constants.CatStarter, m.EaveLength/StarterEaveLFPerBundle, constants.UnitBundle,
			fmt.Sprintf("%.0f LF eave @ 1 bundle/%.0f LF", m.EaveLength, StarterEaveLFPerBundle))
		add(constants.CatIceWater, (m.EaveLength*3)/IceWaterLFPerRoll, constants.UnitRoll,
			fmt.Sprintf("%.0f LF eave x3 @ 1 roll/%.0f LF", m.EaveLength, IceWaterLFPerRoll))
	}
	if lf := m.RidgeLength + m.HipLength; lf > 0 {
		add(constants.CatHipRidge, lf/HipRidgeLFPerBundle, constants.UnitBundle,
			fmt.Sprintf("%.0f LF ridge+hip @ 1 bundle/%.0f LF", lf, HipRidgeLFPerBundle))
	}
	if lf := m.EaveLength + m.RakeLength; lf > 0 {
		add(constants.CatDripEdge, lf/DripEdgeLFPerPiece, constants.UnitEach,
			fmt.Sprintf("%.0f LF eave+rake @ 1 piece/%.0f LF", lf, DripEdgeLFPerPiece))
	}
	if m.ValleyLength > 0 {
		add(constants.CatValleyMetal, m.ValleyLength/ValleyLFPerPiece, constants.UnitEach,
			fmt.Sprintf("%.0f LF valley @ 1 piece/%.0f LF", m.ValleyLength, ValleyLFPerPiece))
	}
	return out
}
