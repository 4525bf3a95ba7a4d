package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost acumula una entrada al costo promedio ponderado.
// NuevoCosto = ((CantActual * CostoActual) + (CantEntrada * CostoEntrada)) / (CantActual + CantEntrada)
func WeightedAverageCost(cantActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := cantActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := cantActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}
