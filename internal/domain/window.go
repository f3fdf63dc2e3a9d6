package domain

import (
	"fmt"
	"time"
)

type WindowName string

const (
	WindowToday            WindowName = "today"
	WindowYesterday        WindowName = "yesterday"
	WindowSameDayLastWeek  WindowName = "same_day_last_week"
	WindowLast7Days        WindowName = "last_7_days"
	WindowPrior7Days       WindowName = "prior_7_days"
	WindowThisMonth        WindowName = "this_month"
	WindowPriorMonthToDate WindowName = "prior_month_to_date"
	WindowLastMonth        WindowName = "last_month"
	WindowMonthBeforeLast  WindowName = "month_before_last"
	WindowLifetime         WindowName = "lifetime"
	WindowCustom           WindowName = "custom"
)

// LifetimeYears é o histórico máximo que a API de relatórios aceita
const LifetimeYears = 3

// MetricsWindow é um intervalo fechado de dias de calendário [Start, End]
type MetricsWindow struct {
	Name  WindowName `json:"name"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

// NewCustomWindow cria uma janela explícita para drill-down
func NewCustomWindow(start, end time.Time) MetricsWindow {
	return MetricsWindow{
		Name:  WindowCustom,
		Start: StartOfDay(start),
		End:   StartOfDay(end),
	}
}

// Validate garante start <= end e que nenhuma data passe de hoje no fuso do chamador
func (w MetricsWindow) Validate(today time.Time) error {
	today = StartOfDay(today)
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: %s sem datas", ErrInvalidWindow, w.Name)
	}
	if w.Start.After(w.End) {
		return fmt.Errorf("%w: %s começa em %s depois do fim %s",
			ErrInvalidWindow, w.Name, w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
	}
	if w.End.After(today) {
		return fmt.Errorf("%w: %s termina no futuro (%s)", ErrInvalidWindow, w.Name, w.End.Format(time.DateOnly))
	}
	return nil
}

// Days retorna a quantidade de dias cobertos pela janela
func (w MetricsWindow) Days() int {
	return int(civilDate(w.End).Sub(civilDate(w.Start)).Hours()/24) + 1
}

// civilDate leva a data de calendário para UTC, onde todo dia tem 24h
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (w MetricsWindow) String() string {
	return fmt.Sprintf("%s[%s..%s]", w.Name, w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
}

// StartOfDay trunca para meia-noite preservando o fuso de t
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PresetWindows calcula todas as janelas nomeadas relativas a now, já convertido para loc
func PresetWindows(now time.Time, loc *time.Location) []MetricsWindow {
	today := StartOfDay(now.In(loc))
	yesterday := today.AddDate(0, 0, -1)

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
	firstOfLastMonth := firstOfMonth.AddDate(0, -1, 0)
	firstOfMonthBeforeLast := firstOfMonth.AddDate(0, -2, 0)

	return []MetricsWindow{
		{Name: WindowToday, Start: today, End: today},
		{Name: WindowYesterday, Start: yesterday, End: yesterday},
		{Name: WindowSameDayLastWeek, Start: yesterday.AddDate(0, 0, -7), End: yesterday.AddDate(0, 0, -7)},
		{Name: WindowLast7Days, Start: today.AddDate(0, 0, -6), End: today},
		{Name: WindowPrior7Days, Start: today.AddDate(0, 0, -13), End: today.AddDate(0, 0, -7)},
		{Name: WindowThisMonth, Start: firstOfMonth, End: today},
		{Name: WindowPriorMonthToDate, Start: firstOfLastMonth, End: sameDayCapped(firstOfLastMonth, today.Day())},
		{Name: WindowLastMonth, Start: firstOfLastMonth, End: firstOfMonth.AddDate(0, 0, -1)},
		{Name: WindowMonthBeforeLast, Start: firstOfMonthBeforeLast, End: firstOfLastMonth.AddDate(0, 0, -1)},
		{Name: WindowLifetime, Start: today.AddDate(-LifetimeYears, 0, 0), End: today},
	}
}

// sameDayCapped devolve o dia `day` do mês de firstOfMonth, limitado ao último dia desse mês
// (31 de março compara com 28/29 de fevereiro)
func sameDayCapped(firstOfMonth time.Time, day int) time.Time {
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return firstOfMonth.AddDate(0, 0, day-1)
}
