package domain

import "github.com/shopspring/decimal"

type DeltaName string

const (
	DeltaTodayVsYesterday           DeltaName = "today_vs_yesterday"
	DeltaYesterdayVsSameDayLastWeek DeltaName = "yesterday_vs_same_day_last_week"
	DeltaLast7VsPrior7              DeltaName = "last_7_vs_prior_7"
	DeltaThisMonthVsLastMonth       DeltaName = "this_month_vs_last_month"
	DeltaLastMonthVsPriorMonth      DeltaName = "last_month_vs_prior_month"
)

// DeltaPair liga uma comparação às janelas atual e base
type DeltaPair struct {
	Name     DeltaName
	Current  WindowName
	Previous WindowName
}

// DeltaPairs são as comparações publicadas em todo snapshot.
// O mês corrente compara com o mês anterior cortado no mesmo dia.
var DeltaPairs = []DeltaPair{
	{Name: DeltaTodayVsYesterday, Current: WindowToday, Previous: WindowYesterday},
	{Name: DeltaYesterdayVsSameDayLastWeek, Current: WindowYesterday, Previous: WindowSameDayLastWeek},
	{Name: DeltaLast7VsPrior7, Current: WindowLast7Days, Previous: WindowPrior7Days},
	{Name: DeltaThisMonthVsLastMonth, Current: WindowThisMonth, Previous: WindowPriorMonthToDate},
	{Name: DeltaLastMonthVsPriorMonth, Current: WindowLastMonth, Previous: WindowMonthBeforeLast},
}

// DeltaResult é a comparação período contra período
type DeltaResult struct {
	AbsoluteDifference decimal.Decimal  `json:"absolute_difference"`
	PercentageChange   *decimal.Decimal `json:"percentage_change"` // nil quando a base é zero
	IsImprovement      bool             `json:"is_improvement"`
}

var hundred = decimal.NewFromInt(100)

// Compare calcula a diferença absoluta e percentual entre current e previous.
// Função pura e total: nunca falha para entradas finitas.
func Compare(current, previous decimal.Decimal) DeltaResult {
	if previous.IsZero() {
		return DeltaResult{
			AbsoluteDifference: current,
			PercentageChange:   nil,
			IsImprovement:      !current.IsNegative(),
		}
	}

	diff := current.Sub(previous)
	pct := diff.Div(previous.Abs()).Mul(hundred).Round(1)

	return DeltaResult{
		AbsoluteDifference: diff,
		PercentageChange:   &pct,
		IsImprovement:      !diff.IsNegative(),
	}
}
