package main

import (
	"image"
	"image/png"
	"log"
	"math/big"
	"os"
	"strconv"

	"lukechampine.com/flagg"

	"github.com/shadowguard/sgp"
)

func main() {
	log.SetFlags(0)

	flagg.Root.Usage = flagg.SimpleUsage(flagg.Root, `Usage: sgpwm [command] [args]

Commands:
    sgpwm create-master in.png key uid out.png      Embed a master watermark
    sgpwm distribute in.png key recipient out.png   Stamp a distribution copy
    sgpwm update-perms in.png key out.png            Rewrite a master's permissions
    sgpwm audit in.png key                           Recover and print the embedded record
`)
	cmdCreate := flagg.New("create-master", `Usage:
    sgpwm create-master [-derivative] [-reprint] in.png key uid out.png
      Embed a master watermark for owner uid in in.png, writing out.png
`)
	cmdDistribute := flagg.New("distribute", `Usage:
    sgpwm distribute in.png key recipient out.png
      Stamp a distribution copy of in.png for recipient, writing out.png
`)
	cmdUpdate := flagg.New("update-perms", `Usage:
    sgpwm update-perms [-derivative] [-reprint] in.png key out.png
      Rewrite the permission flags of the master in in.png
`)
	cmdAudit := flagg.New("audit", `Usage:
    sgpwm audit in.png key
      Recover and print the record embedded in in.png
`)

	derivativeCreate := cmdCreate.Bool("derivative", false, "allow derivatives")
	reprintCreate := cmdCreate.Bool("reprint", false, "allow reprints")
	derivativeUpdate := cmdUpdate.Bool("derivative", false, "allow derivatives")
	reprintUpdate := cmdUpdate.Bool("reprint", false, "allow reprints")
	strict := flagg.Root.Bool("strict", false, "reject images with reserved payload bits set")

	cmd := flagg.Parse(flagg.Tree{
		Cmd: flagg.Root,
		Sub: []flagg.Tree{
			{Cmd: cmdCreate},
			{Cmd: cmdDistribute},
			{Cmd: cmdUpdate},
			{Cmd: cmdAudit},
		},
	})

	log := sgp.NewLogger(sgp.LevelInfo, os.Stderr)

	switch cmd {
	case cmdCreate:
		if cmd.NArg() != 4 {
			cmd.Usage()
			return
		}
		img := decodePNG(cmd.Arg(0))
		key := []byte(cmd.Arg(1))
		uid := parseUID(cmd.Arg(2))

		codec := sgp.NewCodec(key, *strict, log)
		out, err := codec.CreateMaster(img, uid, *derivativeCreate, *reprintCreate)
		if err != nil {
			log.Errorf("create-master failed: %v", err)
			os.Exit(1)
		}
		encodePNG(cmd.Arg(3), out)

	case cmdDistribute:
		if cmd.NArg() != 4 {
			cmd.Usage()
			return
		}
		img := decodePNG(cmd.Arg(0))
		key := []byte(cmd.Arg(1))
		recipient := parseUID(cmd.Arg(2))

		codec := sgp.NewCodec(key, *strict, log)
		res, err := codec.GenerateDistribution(img, recipient)
		if err != nil {
			log.Errorf("distribute failed: %v", err)
			os.Exit(1)
		}
		encodePNG(cmd.Arg(3), res.Image)
		os.Stdout.WriteString("distribution id: " + res.DistributionID.String() + "\n")

	case cmdUpdate:
		if cmd.NArg() != 3 {
			cmd.Usage()
			return
		}
		img := decodePNG(cmd.Arg(0))
		key := []byte(cmd.Arg(1))

		codec := sgp.NewCodec(key, *strict, log)
		out, err := codec.UpdatePermissions(img, *derivativeUpdate, *reprintUpdate)
		if err != nil {
			log.Errorf("update-perms failed: %v", err)
			os.Exit(1)
		}
		encodePNG(cmd.Arg(2), out)

	case cmdAudit:
		if cmd.NArg() != 2 {
			cmd.Usage()
			return
		}
		img := decodePNG(cmd.Arg(0))
		key := []byte(cmd.Arg(1))

		codec := sgp.NewCodec(key, *strict, log)
		res, err := codec.Audit(img)
		if err != nil {
			log.Errorf("audit failed: %v", err)
			os.Exit(1)
		}
		os.Stdout.WriteString("verdict:         " + res.Verdict.String() + "\n")
		os.Stdout.WriteString("confidence:      " + strconv.FormatFloat(res.Confidence, 'f', 4, 64) + "\n")
		os.Stdout.WriteString("scale used:      " + strconv.Itoa(res.Scale) + "\n")
		if res.Verdict == sgp.VerdictWatermarked {
			os.Stdout.WriteString("original uid:    " + res.Record.OriginalUID.String() + "\n")
			os.Stdout.WriteString("current uid:     " + res.Record.CurrentUID.String() + "\n")
			os.Stdout.WriteString("is master:       " + boolStr(res.Record.IsMaster()) + "\n")
			os.Stdout.WriteString("allow derivative: " + boolStr(res.Record.AllowDerivative) + "\n")
			os.Stdout.WriteString("allow reprint:    " + boolStr(res.Record.AllowReprint) + "\n")
		}

	default:
		flagg.Root.Usage()
	}
}

func decodePNG(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalln("could not open image:", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		log.Fatalln("could not decode png:", err)
	}
	return img
}

func encodePNG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalln("could not create output file:", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalln("could not encode png:", err)
	}
}

func parseUID(s string) sgp.UID {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		log.Fatalln("invalid uid:", s)
	}
	uid, err := sgp.NewUID(n)
	if err != nil {
		log.Fatalln("uid out of range:", err)
	}
	return uid
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
