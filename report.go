package sgp

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/ed25519"
)

// AuditReport is the human- and machine-readable summary of one Audit
// call (SPEC_FULL.md component I, supplementing original_source's
// generate_audit_report). It is JSON-serializable so FormatReport's
// output can be written straight to a file or piped to another tool.
type AuditReport struct {
	Verdict         string  `json:"verdict"`
	OriginalUID     string  `json:"original_uid"`
	CurrentUID      string  `json:"current_uid"`
	IsMaster        bool    `json:"is_master"`
	AllowDerivative bool    `json:"allow_derivative"`
	AllowReprint    bool    `json:"allow_reprint"`
	Confidence      float64 `json:"confidence"`
	ScaleUsed       int     `json:"scale_used"`
	GeneratedAt     string  `json:"generated_at"`
}

// FormatReport builds an AuditReport from an AuditResult. generatedAt is
// supplied by the caller (rather than read from time.Now internally) so
// report generation stays deterministic and testable. When res.Verdict
// is VerdictNoWatermark, Record is the zero value, so OriginalUID and
// CurrentUID report the null UID rather than any real owner.
func FormatReport(res AuditResult, generatedAt time.Time) AuditReport {
	return AuditReport{
		Verdict:         res.Verdict.String(),
		OriginalUID:     res.Record.OriginalUID.String(),
		CurrentUID:      res.Record.CurrentUID.String(),
		IsMaster:        res.Record.IsMaster(),
		AllowDerivative: res.Record.AllowDerivative,
		AllowReprint:    res.Record.AllowReprint,
		Confidence:      res.Confidence,
		ScaleUsed:       res.Scale,
		GeneratedAt:     generatedAt.UTC().Format(time.RFC3339),
	}
}

// SignedReport pairs a report's canonical JSON encoding with an ed25519
// signature over that encoding, following the claim/prove/verify shape
// of cmd/slink: a report is a claim, SignReport is the prove step, and
// VerifyReport is the verify step run by a separate party holding only
// the public key.
type SignedReport struct {
	Report    json.RawMessage `json:"report"`
	Signature []byte          `json:"signature"`
}

// SignReport canonically encodes report and signs the encoding with
// priv, returning a SignedReport ready to hand to a third party
// alongside the corresponding public key.
func SignReport(report AuditReport, priv ed25519.PrivateKey) (*SignedReport, error) {
	encoded, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("sgp: encode report: %w", err)
	}
	sig := ed25519.Sign(priv, encoded)
	return &SignedReport{Report: encoded, Signature: sig}, nil
}

// VerifyReport checks signed's signature against pub and, on success,
// decodes and returns the report. It returns an error on any signature
// or decoding failure; it never trusts the embedded report fields
// before the signature check passes.
func VerifyReport(signed *SignedReport, pub ed25519.PublicKey) (*AuditReport, error) {
	if !ed25519.Verify(pub, signed.Report, signed.Signature) {
		return nil, fmt.Errorf("sgp: report signature verification failed")
	}
	var report AuditReport
	if err := json.Unmarshal(signed.Report, &report); err != nil {
		return nil, fmt.Errorf("sgp: decode verified report: %w", err)
	}
	return &report, nil
}
