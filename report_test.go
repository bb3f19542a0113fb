package sgp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func TestSignAndVerifyReport(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	res := AuditResult{
		Record: Record{
			OriginalUID:     UIDFromUint64(111),
			CurrentUID:      UIDFromUint64(222),
			AllowDerivative: true,
		},
		Confidence: 0.94,
	}
	report := FormatReport(res, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	signed, err := SignReport(report, priv)
	require.NoError(t, err)

	verified, err := VerifyReport(signed, pub)
	require.NoError(t, err)
	require.Equal(t, report, *verified)
}

func TestVerifyReportRejectsTampering(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	report := FormatReport(AuditResult{Record: Record{OriginalUID: UIDFromUint64(1)}}, time.Now())
	signed, err := SignReport(report, priv)
	require.NoError(t, err)

	signed.Report = append(signed.Report[:len(signed.Report)-1], '}', ' ')

	_, err = VerifyReport(signed, pub)
	require.Error(t, err)
}
