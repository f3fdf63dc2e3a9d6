package adsensedomain

import "strings"

type Account struct {
	Name        string `json:"name"` // accounts/pub-XXXXXXXX
	DisplayName string `json:"displayName"`
	State       string `json:"state"`
	Premium     bool   `json:"premium"`
	Timezone    struct {
		ID string `json:"id"`
	} `json:"timeZone"`
}

// ID devolve o publisher id sem o prefixo de recurso
func (a Account) ID() string {
	return strings.TrimPrefix(a.Name, "accounts/")
}

type AccountsResponse struct {
	Accounts      []Account `json:"accounts"`
	NextPageToken string    `json:"nextPageToken"`
}

type Payment struct {
	Name   string `json:"name"`   // accounts/pub-X/payments/unpaid ou .../payments/AAAA-MM-DD
	Amount string `json:"amount"` // formatado na moeda da conta, ex. "R$ 1.234,56"
	Date   *Date  `json:"date,omitempty"`
}

// IsUnpaid indica o pseudo pagamento que representa o saldo em aberto
func (p Payment) IsUnpaid() bool {
	return strings.HasSuffix(p.Name, "/payments/unpaid")
}

type PaymentsResponse struct {
	Payments []Payment `json:"payments"`
}
