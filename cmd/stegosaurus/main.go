package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"lukechampine.com/flagg"

	"github.com/lukechampine/stegosaurus"
)

var (
	info    = color.New(color.FgBlue).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
)

func fatal(msg string, err error) {
	log.Fatalln(failure("[-]"), msg+":", err)
}

func open(path string, o *stegosaurus.Options) *stegosaurus.Image {
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("could not read file", err)
	}
	img, err := stegosaurus.New(data, o)
	if err != nil {
		fatal("could not parse jpeg", err)
	}
	return img
}

func save(path string, img *stegosaurus.Image) {
	if err := os.WriteFile(path, img.Data(), 0666); err != nil {
		fatal("could not write output file", err)
	}
	log.Println(success("[+]"), "wrote", path, fmt.Sprintf("(%dx%d, %d bytes)", img.Width(), img.Height(), len(img.Data())))
}

func main() {
	log.SetFlags(0)

	flagg.Root.Usage = flagg.SimpleUsage(flagg.Root, `Usage: stegosaurus [command] [args]

Commands:
    stegosaurus rob in.jpg
    stegosaurus blockiness in.jpg
    stegosaurus crop [-x 4] [-y 4] in.jpg out.jpg
    stegosaurus rewrite in.jpg out.jpg
    stegosaurus usable [-key KEY] [-n 10] in.jpg
    stegosaurus dump in.jpg out.scof
`)
	cmdROB := flagg.New("rob", `Usage:
    stegosaurus rob in.jpg
      Print the reciprocal ratio of blockiness of in.jpg
`)
	cmdBlockiness := flagg.New("blockiness", `Usage:
    stegosaurus blockiness in.jpg
      Print the blockiness of the decoded in.jpg
`)
	cmdCrop := flagg.New("crop", `Usage:
    stegosaurus crop [-x 4] [-y 4] in.jpg out.jpg
      Drop the first x columns and y rows of in.jpg, writing the result to out.jpg
`)
	cropX := cmdCrop.Int("x", 4, "columns to drop")
	cropY := cmdCrop.Int("y", 4, "rows to drop")
	batch := cmdCrop.Int("batch", stegosaurus.DefaultBatchRows, "rows decoded per batch")
	cmdRewrite := flagg.New("rewrite", `Usage:
    stegosaurus rewrite in.jpg out.jpg
      Re-encode the coefficients of in.jpg unchanged, writing the result to out.jpg
`)
	cmdUsable := flagg.New("usable", `Usage:
    stegosaurus usable [-key KEY] [-n 10] in.jpg
      Count the non-zero AC coefficients of in.jpg. With -key, also list
      the first n of them in the order selected by KEY
`)
	usableKey := cmdUsable.String("key", "", "permutation key")
	usableN := cmdUsable.Int("n", 10, "coefficients to list")
	cmdDump := flagg.New("dump", `Usage:
    stegosaurus dump in.jpg out.scof
      Write every coefficient of in.jpg to out.scof
`)
	cmd := flagg.Parse(flagg.Tree{
		Cmd: flagg.Root,
		Sub: []flagg.Tree{
			{Cmd: cmdROB},
			{Cmd: cmdBlockiness},
			{Cmd: cmdCrop},
			{Cmd: cmdRewrite},
			{Cmd: cmdUsable},
			{Cmd: cmdDump},
		},
	})

	switch cmd {
	case cmdROB:
		if cmd.NArg() != 1 {
			cmd.Usage()
			return
		}
		img := open(cmd.Arg(0), nil)
		defer img.Close()
		r, err := img.ReciprocalROB()
		if err != nil {
			fatal("could not compute ratio", err)
		}
		fmt.Println(r)

	case cmdBlockiness:
		if cmd.NArg() != 1 {
			cmd.Usage()
			return
		}
		img := open(cmd.Arg(0), nil)
		defer img.Close()
		b, err := img.Blockiness()
		if err != nil {
			fatal("could not measure blockiness", err)
		}
		fmt.Println(b)

	case cmdCrop:
		if cmd.NArg() != 2 {
			cmd.Usage()
			return
		}
		img := open(cmd.Arg(0), &stegosaurus.Options{BatchRows: *batch})
		defer img.Close()
		log.Println(info("[*]"), fmt.Sprintf("cropping %dx%d by (%d, %d)", img.Width(), img.Height(), *cropX, *cropY))
		out, err := img.Crop(*cropX, *cropY)
		if err != nil {
			fatal("could not crop", err)
		}
		defer out.Close()
		save(cmd.Arg(1), out)

	case cmdRewrite:
		if cmd.NArg() != 2 {
			cmd.Usage()
			return
		}
		img := open(cmd.Arg(0), nil)
		defer img.Close()
		out, err := img.WriteNew()
		if err != nil {
			fatal("could not re-encode", err)
		}
		defer out.Close()
		save(cmd.Arg(1), out)

	case cmdUsable:
		if cmd.NArg() != 1 {
			cmd.Usage()
			return
		}
		img := open(cmd.Arg(0), nil)
		defer img.Close()
		acc, err := img.Accessor()
		if err != nil {
			fatal("could not read coefficients", err)
		}
		fmt.Printf("%d of %d coefficients usable\n", acc.UsableCoefficientCount(), acc.Len())
		if *usableKey == "" {
			return
		}
		listed := 0
		stegosaurus.NewPermuter(acc, []byte(*usableKey)).Walk(func(index int, value int16) bool {
			if listed >= *usableN {
				return false
			}
			fmt.Printf("%10d %6d\n", index, value)
			listed++
			return true
		})

	case cmdDump:
		if cmd.NArg() != 2 {
			cmd.Usage()
			return
		}
		img := open(cmd.Arg(0), nil)
		defer img.Close()
		acc, err := img.Accessor()
		if err != nil {
			fatal("could not read coefficients", err)
		}
		f, err := os.Create(cmd.Arg(1))
		if err != nil {
			fatal("could not create output file", err)
		}
		defer f.Close()
		if err := stegosaurus.DumpCoefficients(f, acc); err != nil {
			fatal("could not write dump", err)
		}
		log.Println(success("[+]"), "dumped", acc.Len(), "coefficients to", cmd.Arg(1))

	default:
		flagg.Root.Usage()
	}
}
