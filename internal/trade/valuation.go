package trade

import "math"

// ContractMultiplier is the number of shares one option contract covers.
const ContractMultiplier = 100

// Value returns r with Net and Percent recomputed from its source fields.
func Value(r Record) Record {
	r.Net = (r.Premium-r.Buyback)*ContractMultiplier*float64(r.Qty) - r.Commissions
	r.Percent = ReturnOnCapital(r.Net, r.Capital())
	return r
}

// ReturnOnCapital is net as a percentage of capital. It is 0 when there is
// no capital at risk and NaN when the capital itself is unknown.
func ReturnOnCapital(net, capital float64) float64 {
	switch {
	case math.IsNaN(capital):
		return math.NaN()
	case capital > 0:
		return net / capital * 100
	default:
		return 0
	}
}
