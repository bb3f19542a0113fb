package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/ed25519"

	"lukechampine.com/flagg"

	"github.com/shadowguard/sgp"
)

// keypair derives a deterministic ed25519 keypair from password, the
// same claim/prove/verify shape as cmd/slink, applied here to signing
// audit reports rather than embedding a key in an image.
func keypair(password string) (ed25519.PublicKey, ed25519.PrivateKey) {
	h := sha256.Sum256([]byte(password))
	pk, sk, _ := ed25519.GenerateKey(bytes.NewReader(h[:]))
	return pk, sk
}

func main() {
	log.SetFlags(0)

	flagg.Root.Usage = flagg.SimpleUsage(flagg.Root, `Usage: sgpsign [command] [args]

Commands:
    sgpsign sign report.json password      Sign an audit report, print the signed envelope
    sgpsign verify signed.json password     Verify a signed envelope's signature
`)
	cmdSign := flagg.New("sign", `Usage:
    sgpsign sign report.json password
      Sign the AuditReport JSON in report.json with the key derived from password
`)
	cmdVerify := flagg.New("verify", `Usage:
    sgpsign verify signed.json password
      Verify the SignedReport JSON in signed.json against password's public key
`)
	cmd := flagg.Parse(flagg.Tree{
		Cmd: flagg.Root,
		Sub: []flagg.Tree{
			{Cmd: cmdSign},
			{Cmd: cmdVerify},
		},
	})

	switch cmd {
	case cmdSign:
		if cmd.NArg() != 2 {
			cmd.Usage()
			return
		}
		raw, err := os.ReadFile(cmd.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		var report sgp.AuditReport
		if err := json.Unmarshal(raw, &report); err != nil {
			log.Fatal("invalid report json:", err)
		}
		if report.GeneratedAt == "" {
			report.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
		}

		_, sk := keypair(cmd.Arg(1))
		signed, err := sgp.SignReport(report, sk)
		if err != nil {
			log.Fatal(err)
		}
		out, err := json.MarshalIndent(signed, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(out)
		os.Stdout.WriteString("\n")

	case cmdVerify:
		if cmd.NArg() != 2 {
			cmd.Usage()
			return
		}
		raw, err := os.ReadFile(cmd.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		var signed sgp.SignedReport
		if err := json.Unmarshal(raw, &signed); err != nil {
			log.Fatal("invalid signed report json:", err)
		}

		pk, _ := keypair(cmd.Arg(1))
		report, err := sgp.VerifyReport(&signed, pk)
		if err != nil {
			log.Fatal("verification failed:", err)
		}
		os.Stdout.WriteString("verified OK\n")
		out, _ := json.MarshalIndent(report, "", "  ")
		os.Stdout.Write(out)
		os.Stdout.WriteString("\n")

	default:
		flagg.Root.Usage()
	}
}
