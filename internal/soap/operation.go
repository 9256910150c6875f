// Package soap talks to the insurer's claim web service: it builds SOAP 1.1
// request envelopes, posts them, and unwraps the escaped XML payload the
// service returns inside its result element.
package soap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownOperation is returned when an operation name is not in the
// service table.
var ErrUnknownOperation = errors.New("unknown service operation")

// DefaultEndpoint is the production claim intimation service.
const DefaultEndpoint = "https://slportal.uiic.in/Claim_Intimation_WebService/ClaimIntimation.svc"

// OperationName identifies one of the remote claim operations.
type OperationName string

const (
	Intimation   OperationName = "Intimation"
	Settlement   OperationName = "Settlement"
	Modification OperationName = "Modification"
	Repudiation  OperationName = "Repudiation"
	Reopen       OperationName = "Reopen"
)

// Operation is the static addressing of one remote call.
type Operation struct {
	Name   OperationName `yaml:"-"`
	URL    string        `yaml:"url"`
	Method string        `yaml:"method"`
	Action string        `yaml:"soap_action"`
	// Result is the element of the response body holding the escaped payload.
	Result string `yaml:"result"`
}

// ServiceMap maps operation names to their addressing.
type ServiceMap map[OperationName]Operation

// DefaultServiceMap returns the insurer's published operations, all served
// from endpoint. The remote method names keep the service's own spelling.
func DefaultServiceMap(endpoint string) ServiceMap {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return ServiceMap{
		Intimation: {
			Name:   Intimation,
			URL:    endpoint,
			Method: "ClaimIntimation",
			Action: "http://tempuri.org/IClaimIntimation/ClaimIntimation",
			Result: "ClaimIntimationResult",
		},
		Settlement: {
			Name:   Settlement,
			URL:    endpoint,
			Method: "ClaimSattlement",
			Action: "http://tempuri.org/IClaimIntimation/ClaimSattlement",
			Result: "ClaimSattlementResult",
		},
		Modification: {
			Name:   Modification,
			URL:    endpoint,
			Method: "ClaimProvisionModification",
			Action: "http://tempuri.org/IClaimIntimation/ClaimProvisionModification",
			Result: "ClaimModificationResult",
		},
		Repudiation: {
			Name:   Repudiation,
			URL:    endpoint,
			Method: "ClaimRepudiation",
			Action: "http://tempuri.org/IClaimRepudiation/ClaimRepudiation",
			Result: "ClaimRepudiationResult",
		},
		Reopen: {
			Name:   Reopen,
			URL:    endpoint,
			Method: "ClaimReopen",
			Action: "http://tempuri.org/IClaimIntimation/ClaimReOpen",
			Result: "ClaimReopenResult",
		},
	}
}

// aliases accepts the service's historical spelling as a selector.
var aliases = map[string]OperationName{
	"sattlement": Settlement,
}

// Lookup resolves an operation by name, case-insensitively.
func (m ServiceMap) Lookup(name string) (Operation, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = strings.ToLower(string(alias))
	}
	for opName, op := range m {
		if strings.ToLower(string(opName)) == key {
			return op, nil
		}
	}
	return Operation{}, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Names returns the operation names in display order.
func (m ServiceMap) Names() []OperationName {
	order := map[OperationName]int{Intimation: 0, Settlement: 1, Modification: 2, Repudiation: 3, Reopen: 4}
	names := make([]OperationName, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := order[names[i]]
		oj, jok := order[names[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}

// ResultElements returns every result element name the map knows, plus the
// method-derived "<Method>Result" names, in display order without duplicates.
func (m ServiceMap) ResultElements() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, n := range m.Names() {
		add(m[n].Result)
	}
	for _, n := range m.Names() {
		if m[n].Method != "" {
			add(m[n].Method + "Result")
		}
	}
	return out
}
