// blepgen.go - Generate the YM band-limited step table
//
// Usage: go run blepgen.go [-o ../ym_blep_table.go]

package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"math"
	"os"
)

const (
	generatorHz = 250000.0 // YM tone clock
	cutoffHz    = 20000.0
	rcHz        = 15000.0 // output stage of the ST
	taps        = 161
	kaiserBeta  = 9.0
	kernelLen   = 192
	one         = 65536
	perLine     = 12
)

// besselI0 is the zeroth order modified Bessel function of the first kind.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	for k := 1; ; k++ {
		term *= (x / (2 * float64(k))) * (x / (2 * float64(k)))
		sum += term
		if term < 1e-12*sum {
			return sum
		}
	}
}

// kaiserSinc is a windowed sinc lowpass centred on (taps-1)/2.
func kaiserSinc() []float64 {
	c := float64(taps-1) / 2
	h := make([]float64, taps)
	for k := range h {
		x := float64(k) - c
		arg := 2 * cutoffHz / generatorHz * x
		sinc := 1.0
		if x != 0 {
			sinc = math.Sin(math.Pi*arg) / (math.Pi * arg)
		}
		r := x / c
		w := besselI0(kaiserBeta*math.Sqrt(math.Max(0, 1-r*r))) / besselI0(kaiserBeta)
		h[k] = sinc * w
	}
	return h
}

// stepTable runs the impulse response through a one-pole RC stage and
// integrates it into a step that ends at exactly one.
func stepTable() []int32 {
	h := kaiserSinc()
	rc := 1 / (2 * math.Pi * rcHz)
	a := 1 - math.Exp(-1/(generatorHz*rc))

	y := make([]float64, kernelLen)
	state, total := 0.0, 0.0
	for k := range y {
		v := 0.0
		if k < len(h) {
			v = h[k]
		}
		state += a * (v - state)
		y[k] = state
		total += state
	}

	out := make([]int32, kernelLen)
	sum := 0.0
	for k := range y {
		sum += y[k]
		out[k] = int32(math.RoundToEven(sum / total * one))
	}
	out[kernelLen-1] = one
	return out
}

func halfPoint(table []int32) int {
	for k, v := range table {
		if v >= one/2 {
			return k
		}
	}
	return -1
}

func render(table []int32) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "// ym_blep_table.go - Band-limited step kernel for the YM engine.\n\n")
	fmt.Fprintf(&b, "package sc68\n\n// Generated by tools/blepgen.go.\n\n")
	fmt.Fprintf(&b, "const (\n\tBLEP_KERNEL_LEN = %d\n\tBLEP_ONE = %d\n)\n\n", kernelLen, one)
	fmt.Fprintf(&b, "// blepStep is the integrated impulse response of a Kaiser (beta %g)\n", kaiserBeta)
	fmt.Fprintf(&b, "// windowed sinc at the %g kHz generator rate, cut at %g kHz and followed\n", generatorHz/1000, cutoffHz/1000)
	fmt.Fprintf(&b, "// by a %g kHz RC stage. It rises from 0 to BLEP_ONE; the half point is at\n", rcHz/1000)
	fmt.Fprintf(&b, "// index %d.\n", halfPoint(table))
	fmt.Fprintf(&b, "var blepStep = [BLEP_KERNEL_LEN]int32{\n")
	for i := 0; i < len(table); i += perLine {
		b.WriteString("\t")
		for j, v := range table[i:min(i+perLine, len(table))] {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%d,", v)
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return format.Source(b.Bytes())
}

func main() {
	outPath := flag.String("o", "../ym_blep_table.go", "Output file, - for stdout")
	flag.Parse()

	src, err := render(stepTable())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *outPath == "-" {
		os.Stdout.Write(src)
		return
	}
	if err := os.WriteFile(*outPath, src, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", *outPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d entries, half point at %d)\n", *outPath, kernelLen, halfPoint(stepTable()))
}
