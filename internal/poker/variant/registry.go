package variant

import (
	"sort"

	"github.com/RobGibbens/CardGames-sub000/internal/errors"
)

// Registry maps variant codes to flows. The mapping is built explicitly at
// startup; an unresolved code is a configuration error, never a silent
// fallback to another variant's rules.
type Registry struct {
	flows map[string]Flow
}

// NewRegistry builds a registry from the given flows. Duplicate or empty
// codes are rejected so misconfiguration fails at startup.
func NewRegistry(flows ...Flow) (*Registry, error) {
	byCode := make(map[string]Flow, len(flows))
	for _, flow := range flows {
		if flow == nil {
			return nil, errors.New(errors.CodeUnknownVariant, "nil flow registered")
		}
		code := flow.Code()
		if code == "" {
			return nil, errors.Newf(errors.CodeUnknownVariant, "flow %q has empty code", flow.Name())
		}
		if _, dup := byCode[code]; dup {
			return nil, errors.Newf(errors.CodeUnknownVariant, "duplicate variant code %q", code)
		}
		byCode[code] = flow
	}
	return &Registry{flows: byCode}, nil
}

// Get resolves a variant code. Unknown codes fail hard.
func (r *Registry) Get(code string) (Flow, error) {
	flow, ok := r.flows[code]
	if !ok {
		return nil, errors.Newf(errors.CodeUnknownVariant, "variant code %q is not registered", code)
	}
	return flow, nil
}

// Codes lists the registered variant codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.flows))
	for code := range r.flows {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DefaultFlows returns the concrete variant set wired into the engine.
// Keeping the list in one place lets startup validate the whole registry
// before accepting traffic.
func DefaultFlows() []Flow {
	return []Flow{
		NewFiveCardDraw(),
		NewSevenCardStud(),
		NewTwoCardGuts(),
		NewSevenStudBuyCard(),
	}
}
