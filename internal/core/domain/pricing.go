package domain

import "math"

// Tariff table. Base rate is keyed by package type; weight, volume and a
// flat distance surcharge are added on top.
var baseRates = map[PackageType]float64{
	PackageStandard:  50,
	PackageExpress:   100,
	PackageFragile:   80,
	PackageOversized: 120,
}

const (
	defaultBaseRate   = 50 // unknown package types fall back to standard
	perKgRate         = 10
	volumetricDivisor = 1000 // cm³ per volumetric unit
	volumetricRate    = 5
	distanceSurcharge = 20

	partnerShareRate      = 0.7
	cancellationShareRate = 0.5
)

// ComputeCost prices a shipment from its package attributes and route.
// Pure function: no I/O, no failure modes. The result is rounded to the
// currency's minor-unit precision (two decimals).
func ComputeCost(pkg PackageDetails, origin, destination string) float64 {
	base, ok := baseRates[pkg.Type]
	if !ok {
		base = defaultBaseRate
	}

	volume := pkg.Dimensions.LengthCm * pkg.Dimensions.WidthCm * pkg.Dimensions.HeightCm
	cost := base +
		pkg.WeightKg*perKgRate +
		volume/volumetricDivisor*volumetricRate +
		distanceSurcharge // flat per-route surcharge regardless of distance

	return math.Round(cost*100) / 100
}

// DeliveryEarnings is the partner's cut of a delivered shipment's
// revenue, rounded to whole currency units.
func DeliveryEarnings(revenue float64) float64 {
	return math.Round(revenue * partnerShareRate)
}

// CancellationCredit is the partial amount credited to a partner when a
// shipment they already picked up is cancelled.
func CancellationCredit(earnings float64) float64 {
	return math.Round(earnings * cancellationShareRate)
}
