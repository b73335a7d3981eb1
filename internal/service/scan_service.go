package service

import "strings"

const mockSecurityScore = 85

type ScanResult struct {
	Address   string   `json:"address"`
	Score     int      `json:"score"`
	RiskLevel string   `json:"risk_level"`
	Checks    []string `json:"checks"`
}

// Scan returns a fixed placeholder report; no contract analysis is performed.
func Scan(address string) (*ScanResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrInvalidInput
	}
	return &ScanResult{
		Address:   address,
		Score:     mockSecurityScore,
		RiskLevel: "low",
		Checks:    []string{"liquidity_locked", "ownership_renounced", "no_mint_function"},
	}, nil
}
