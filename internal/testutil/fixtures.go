package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/domain"
)

var testNumeroCounter atomic.Int64

// NextNumero returns a unique demand numero for tests that do not care which.
func NextNumero() string {
	return fmt.Sprintf("T%05d", testNumeroCounter.Add(1))
}

type DemandOption func(*domain.Demand)

func WithPrazo(d dates.Date) DemandOption {
	return func(x *domain.Demand) {
		x.Prazo = dates.Format(d)
	}
}

func WithPrazoText(s string) DemandOption {
	return func(x *domain.Demand) {
		x.Prazo = s
	}
}

func WithCadastro(d dates.Date) DemandOption {
	return func(x *domain.Demand) {
		x.DataCadastro = dates.Format(d)
	}
}

func WithSituacao(s string) DemandOption {
	return func(x *domain.Demand) {
		x.Situacao = s
	}
}

func WithResponsaveis(names ...string) DemandOption {
	return func(x *domain.Demand) {
		x.Responsaveis = names
	}
}

func WithPossivelRespondida() DemandOption {
	return func(x *domain.Demand) {
		x.PossivelRespondida = true
	}
}

func WithPossivelObservacao() DemandOption {
	return func(x *domain.Demand) {
		x.PossivelObservacao = true
	}
}

func WithHref(h string) DemandOption {
	return func(x *domain.Demand) {
		x.Href = h
	}
}

// NewTestDemand builds an in-progress demand with no deadline. Pass
// WithPrazo to give it one.
func NewTestDemand(numero string, opts ...DemandOption) *domain.Demand {
	d := &domain.Demand{
		Numero:       numero,
		DataCadastro: "01/10/2026",
		Situacao:     "Em andamento",
		Responsaveis: []string{},
		UpdatedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
