// Command offerengine serves the offer generation API.
//
//	@title						Offer Engine API
//	@version					1.0
//	@description				Generates, refines and versions marketing offers for a brand.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BrandHeader
//	@in							header
//	@name						X-Brand-ID
package main

import (
	"fmt"
	"os"

	_ "github.com/tbourn/go-offer-engine/docs"
	"github.com/tbourn/go-offer-engine/internal/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "offerengine:", err)
		os.Exit(1)
	}
}
