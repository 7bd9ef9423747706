// Command stegcrop crops four pixels from the top and left of a JPEG,
// writing the result to out.jpeg.
package main

import (
	"log"
	"os"

	"github.com/lukechampine/stegosaurus"
)

const (
	offset  = 4
	outPath = "out.jpeg"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatalln("Usage: stegcrop in.jpg")
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalln("could not read file:", err)
	}
	img, err := stegosaurus.New(data, nil)
	if err != nil {
		log.Fatalln("could not parse jpeg:", err)
	}
	defer img.Close()
	out, err := img.Crop(offset, offset)
	if err != nil {
		log.Fatalln("could not crop:", err)
	}
	defer out.Close()
	if err := os.WriteFile(outPath, out.Data(), 0666); err != nil {
		log.Fatalln("could not write output file:", err)
	}
}
