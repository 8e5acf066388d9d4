package dagconfig

import (
	"testing"
	"time"
)

func TestDefaultParamsAreValid(t *testing.T) {
	err := DevnetParams.Validate()
	if err != nil {
		t.Fatalf("devnet params: %+v", err)
	}

	simnet := SimnetParams.Clone()
	simnet.CoordinatorPublicKeys = []CoordinatorPublicKey{devnetCoordinatorPublicKey}
	err = simnet.Validate()
	if err != nil {
		t.Fatalf("simnet params: %+v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{"ymrsi delta equals omrsi delta", func(p *Params) { p.YMRSIDelta = p.OMRSIDelta }},
		{"omrsi delta above below max depth", func(p *Params) { p.OMRSIDelta = p.BelowMaxDepth + 1 }},
		{"no tips", func(p *Params) { p.MaxNonLazyTips = 0 }},
		{"no children", func(p *Params) { p.MaxChildren = 0 }},
		{"no age", func(p *Params) { p.MaxAgeAfterFirstChild = 0 }},
		{"nothing to select", func(p *Params) { p.TipSelectionCount = 0 }},
		{"zero threshold", func(p *Params) { p.MilestoneSignatureThreshold = 0 }},
		{"unreachable threshold", func(p *Params) { p.MilestoneSignatureThreshold = 2 }},
		{"pruning delay too small", func(p *Params) { p.PruningDelay = p.BelowMaxDepth - 1 }},
		{"no block cache", func(p *Params) { p.BlockCacheSize = 0 }},
		{"no root", func(p *Params) { p.RootSolidEntryPoint = nil }},
	}

	for _, test := range tests {
		params := DevnetParams.Clone()
		test.modify(params)
		if params.Validate() == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	clone := DevnetParams.Clone()
	clone.CoordinatorPublicKeys[0][0] ^= 0xff
	clone.MaxAgeAfterFirstChild = time.Hour

	if DevnetParams.CoordinatorPublicKeys[0] != devnetCoordinatorPublicKey {
		t.Fatalf("mutating a clone changed the original keys")
	}
	if !DevnetParams.IsCoordinatorKey(&devnetCoordinatorPublicKey) {
		t.Fatalf("devnet coordinator key not recognized")
	}
	if DevnetParams.IsCoordinatorKey(&clone.CoordinatorPublicKeys[0]) {
		t.Fatalf("unexpected coordinator key recognized")
	}
}

func TestParamsByName(t *testing.T) {
	params, err := ParamsByName("simnet")
	if err != nil {
		t.Fatalf("ParamsByName: %+v", err)
	}
	if params.Name != "simnet" {
		t.Fatalf("got params of %s", params.Name)
	}
	_, err = ParamsByName("mainnet")
	if err == nil {
		t.Fatalf("expected an error for an unknown network")
	}
}
