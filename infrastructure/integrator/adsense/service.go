package adsense

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/adsenseclient"
	adsensedomain "github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/domain"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

// MetricsClient é a fronteira com a API de relatórios consumida pela agregação
type MetricsClient interface {
	ResolveAccount(ctx context.Context) (string, error)
	Fetch(ctx context.Context, accountID string, window domain.MetricsWindow) (*domain.MetricRecord, error)
	FetchPayments(ctx context.Context, accountID string) (*domain.Payments, error)
}

type AdSenseIntegrator struct {
	cfg    *config.Config
	Client adsenseclient.Client
	loc    *time.Location
	now    func() time.Time
}

func New(cfg *config.Config, client adsenseclient.Client) *AdSenseIntegrator {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}

	return &AdSenseIntegrator{
		cfg:    cfg,
		Client: client,
		loc:    loc,
		now:    time.Now,
	}
}

// ResolveAccount devolve a conta configurada ou a primeira conta ativa acessível
func (s *AdSenseIntegrator) ResolveAccount(ctx context.Context) (string, error) {
	if s.cfg.AdSense.AccountID != "" {
		return s.cfg.AdSense.AccountID, nil
	}

	accounts, err := s.Client.ListAccounts(ctx)
	if err != nil {
		logrus.WithError(err).Error("accounts: failed to list adsense accounts")
		return "", err
	}

	if len(accounts) == 0 {
		return "", domain.ErrNoAccount
	}

	for _, account := range accounts {
		if account.State == "READY" {
			return account.ID(), nil
		}
	}

	logrus.WithField("account_id", accounts[0].ID()).Warn("accounts: nenhuma conta READY, usando a primeira")
	return accounts[0].ID(), nil
}

// Fetch consulta e normaliza os totais de uma janela
func (s *AdSenseIntegrator) Fetch(ctx context.Context, accountID string, window domain.MetricsWindow) (*domain.MetricRecord, error) {
	today := domain.StartOfDay(s.now().In(window.End.Location()))
	if err := window.Validate(today); err != nil {
		return nil, err
	}

	resp, err := s.Client.GenerateReport(ctx, accountID, window)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"window":     window.String(),
			"error":      err.Error(),
		}).Warn("insights: failed to get report from API")
		return nil, err
	}

	record, err := FactoryMetricRecord(resp)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"window":     window.String(),
			"error":      err.Error(),
		}).Error("insights: failed to convert report")
		return nil, domain.NewFetchError(domain.ErrDecoding, window.Name, err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"window":     window.String(),
		"earnings":   record.Earnings.StringFixed(domain.MoneyScale),
	}).Debug("insights: successfully retrieved window metrics")

	return record, nil
}

// FetchPayments devolve o saldo em aberto e o último pagamento efetuado
func (s *AdSenseIntegrator) FetchPayments(ctx context.Context, accountID string) (*domain.Payments, error) {
	resp, err := s.Client.ListPayments(ctx, accountID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"error":      err.Error(),
		}).Warn("payments: failed to get payments from API")
		return nil, err
	}

	payments, err := FactoryPayments(resp, s.loc)
	if err != nil {
		return nil, domain.NewFetchError(domain.ErrDecoding, "payments", err.Error())
	}

	return payments, nil
}

// FactoryMetricRecord converte a linha de totais em MetricRecord. Qualquer campo ausente
// ou inválido descarta o registro inteiro.
func FactoryMetricRecord(resp *adsensedomain.ReportResponse) (*domain.MetricRecord, error) {
	if resp == nil {
		return nil, errors.New("relatório vazio")
	}

	values, err := resp.TotalsByHeader()
	if err != nil {
		return nil, err
	}

	p := &fieldParser{values: values}
	record := &domain.MetricRecord{
		Earnings:        p.money(adsensedomain.MetricEstimatedEarnings),
		Clicks:          p.integer(adsensedomain.MetricClicks),
		Impressions:     p.integer(adsensedomain.MetricImpressions),
		PageViews:       p.integer(adsensedomain.MetricPageViews),
		MatchedRequests: p.integer(adsensedomain.MetricMatchedAdRequests),
		CostPerClick:    p.money(adsensedomain.MetricCostPerClick),
		ImpressionCTR:   p.percentage(adsensedomain.MetricImpressionsCTR),
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// fieldParser guarda o primeiro erro encontrado, os campos seguintes viram no-op
type fieldParser struct {
	values map[string]string
	err    error
}

func (p *fieldParser) raw(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.values[name]
	if !ok {
		p.err = fmt.Errorf("campo ausente: %s", name)
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *fieldParser) money(name string) decimal.Decimal {
	v, ok := p.raw(name)
	if !ok {
		return decimal.Zero
	}
	d, err := domain.ParseMoney(v)
	if err != nil {
		p.err = fmt.Errorf("campo %s inválido %q: %w", name, v, err)
	}
	return d
}

func (p *fieldParser) integer(name string) int64 {
	v, ok := p.raw(name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("campo %s inválido %q: %w", name, v, err)
	}
	return n
}

func (p *fieldParser) percentage(name string) float64 {
	v, ok := p.raw(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("campo %s inválido %q: %w", name, v, err)
	}
	return f
}

// FactoryPayments separa o saldo em aberto do pagamento mais recente
func FactoryPayments(resp []adsensedomain.Payment, loc *time.Location) (*domain.Payments, error) {
	payments := &domain.Payments{}

	for _, p := range resp {
		amount, err := ParseFormattedAmount(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("pagamento %s: %w", p.Name, err)
		}

		if p.IsUnpaid() {
			payments.Unpaid = &domain.Payment{Amount: amount}
			continue
		}

		if p.Date == nil || p.Date.IsZero() {
			logrus.WithField("payment", p.Name).Warn("payments: pagamento sem data ignorado")
			continue
		}

		date := p.Date.Time(loc)
		if payments.LastPayment == nil || date.After(*payments.LastPayment.Date) {
			payments.LastPayment = &domain.Payment{Amount: amount, Date: &date}
		}
	}

	return payments, nil
}

// ParseFormattedAmount interpreta valores como "$1,234.56", "R$ 1.234,56" ou "-€12.00".
// O separador que aparece por último é o decimal.
func ParseFormattedAmount(value string) (decimal.Decimal, error) {
	var b strings.Builder
	negative := false
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' || r == '−':
			negative = true
		}
	}

	digits := b.String()
	if digits == "" {
		return decimal.Zero, fmt.Errorf("valor monetário inválido %q", value)
	}

	lastDot := strings.LastIndex(digits, ".")
	lastComma := strings.LastIndex(digits, ",")

	switch {
	case lastComma > lastDot && len(digits)-lastComma-1 <= domain.MoneyScale:
		digits = strings.ReplaceAll(digits, ".", "")
		digits = strings.Replace(digits, ",", ".", 1)
	case lastDot > lastComma && len(digits)-lastDot-1 <= domain.MoneyScale:
		digits = strings.ReplaceAll(digits, ",", "")
	default:
		// apenas separadores de milhar
		digits = strings.NewReplacer(",", "", ".", "").Replace(digits)
	}

	if negative {
		digits = "-" + digits
	}

	amount, err := domain.ParseMoney(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("valor monetário inválido %q: %w", value, err)
	}
	return amount, nil
}
