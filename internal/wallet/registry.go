package wallet

import (
	"sort"

	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// Options selects per-protocol behavior at registry construction.
type Options struct {
	// Networks maps a protocol to mainnet/testnet. Missing entries mean mainnet.
	Networks map[models.Protocol]models.Network
	// EVMChecksum enables EIP-55 mixed-case EVM addresses.
	EVMChecksum bool
}

// Registry maps protocol identifiers to adapters. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	adapters map[models.Protocol]Adapter
}

// NewRegistry builds a registry from adapters. A later adapter for the same
// protocol replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[models.Protocol]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Protocol()] = a
	}
	return &Registry{adapters: m}
}

// DefaultRegistry returns a registry with every supported protocol.
func DefaultRegistry(opts Options) *Registry {
	network := func(p models.Protocol) models.Network {
		if n, ok := opts.Networks[p]; ok {
			return n
		}
		return models.NetworkMainnet
	}
	return NewRegistry(
		NewBTCAdapter(network(models.ProtocolBitcoin)),
		NewETHAdapter(opts.EVMChecksum),
		NewBSCAdapter(opts.EVMChecksum),
		NewCeloAdapter(opts.EVMChecksum),
		NewXRPAdapter(),
		NewXLMAdapter(),
		NewHTRAdapter(network(models.ProtocolHathor)),
	)
}

// Resolve returns the adapter for p or ErrUnsupportedProtocol.
func (r *Registry) Resolve(p models.Protocol) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, ErrUnsupportedProtocol
	}
	return a, nil
}

// Protocols returns the registered protocols, sorted.
func (r *Registry) Protocols() []models.Protocol {
	out := make([]models.Protocol, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
