// Command validate checks an emitted GeoJSON FeatureCollection against the
// guarantees consumers rely on: single-part geometry, unique feature ids, and
// the property schema of the variant that produced it.
//
// Usage:
//
//	go run ./cmd/validate -in features.geojson -variant forecast
//	etl tracker | go run ./cmd/validate -variant tracker
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/hazard-etl/internal/config"
	"github.com/paulmach/orb/geojson"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "-", "FeatureCollection file to check, - for stdin")
	variant := flag.String("variant", "", "variant that produced the file (forecast or tracker); inferred from ids when empty")
	flag.Parse()

	os.Exit(run(*in, *variant, os.Stdout))
}

func run(in, variant string, out io.Writer) int {
	data, err := readInput(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", in, err)
		return 1
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse FeatureCollection: %v\n", err)
		return 1
	}

	if variant == "" {
		variant = inferVariant(fc)
	}
	if variant != config.VariantForecast && variant != config.VariantTracker {
		fmt.Fprintf(os.Stderr, "FATAL: unknown variant %q\n", variant)
		return 1
	}

	fmt.Fprintf(out, "=== FeatureCollection Validation (%s) ===\n\n", variant)

	phases := []*phase{
		validateGeometry(fc),
		validateIDs(fc, variant),
	}
	if variant == config.VariantForecast {
		phases = append(phases, validateForecastProperties(fc))
	} else {
		phases = append(phases, validateTrackerProperties(fc))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}
	fmt.Fprintf(out, "\nFeatures: %d\n", len(fc.Features))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func readInput(in string) ([]byte, error) {
	if in == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(in)
}
