package auth

import (
	"github.com/2beens/dailymetrics/pkg"
)

// OperatorVerifier checks the operator secret against its bcrypt hash.
// With no hash configured, service mode is disabled.
type OperatorVerifier struct {
	secretHash string
}

func NewOperatorVerifier(secretHash string) *OperatorVerifier {
	return &OperatorVerifier{secretHash: secretHash}
}

func (v *OperatorVerifier) Enabled() bool {
	return v != nil && v.secretHash != ""
}

func (v *OperatorVerifier) Verify(secret string) bool {
	if !v.Enabled() || secret == "" {
		return false
	}
	return pkg.CheckPasswordHash(secret, v.secretHash)
}
