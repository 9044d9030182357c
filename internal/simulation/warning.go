package simulation

const (
	highSlippageWarning     = "HIGH SLIPPAGE WARNING: This order may cause significant market impact!"
	moderateSlippageWarning = "MODERATE SLIPPAGE: Consider splitting this order into smaller sizes."
)

// Warning returns the advisory shown next to a market order's metrics, or
// "" when slippage is acceptable.
func Warning(m Metrics) string {
	if m.Kind != Market {
		return ""
	}
	switch gradeImpact(m.SlippagePercent) {
	case ImpactHigh:
		return highSlippageWarning
	case ImpactMedium:
		return moderateSlippageWarning
	default:
		return ""
	}
}
