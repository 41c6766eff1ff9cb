package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gnemet/DeckPress/internal/pptx"
)

// Prints each slide's shape tree with its text and image references,
// in the order the exporter visits them.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./scripts/dump_deck <pptx_path>")
	}

	pkg, err := pptx.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer pkg.Close()

	for i := 1; i <= pkg.SlideCount(); i++ {
		slide, err := pkg.Slide(i)
		if err != nil {
			fmt.Printf("--- slide %d: %v ---\n", i, err)
			continue
		}
		fmt.Printf("--- slide %d (%s) ---\n", i, slide.PartName)

		opts := pptx.WalkOptions{
			OnError: func(err error) { fmt.Printf("  ! %v\n", err) },
		}
		for shp := range pptx.Walk(slide.Shapes(), opts) {
			fmt.Printf("  <%s> %q", shp.Kind(), shp.Name())
			if refs := pptx.BlipRefs(shp.Markup(), true); len(refs) > 0 {
				fmt.Printf(" blips=%s", strings.Join(refs, ","))
			}
			fmt.Println()
			for _, line := range shp.Lines() {
				fmt.Printf("    | %s\n", line)
			}
		}

		if bg := slide.Background(); bg != nil {
			fmt.Printf("  <background> blips=%v\n", pptx.BlipRefs(bg, false))
		}
	}
}
