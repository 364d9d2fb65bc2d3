// SPDX-License-Identifier: EPL-2.0

package aiff_test

import (
	"fmt"
	"log"
	"os"

	"github.com/ik5/fluxplay/audio"
	"github.com/ik5/fluxplay/formats/aiff"
)

// Example demonstrates opening an AIFF file and converting it to the
// device format.
func Example() {
	f, err := os.Open("testdata/sample.aiff")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	src, err := aiff.Decoder{}.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	if d, ok := audio.Duration(src); ok {
		fmt.Printf("Duration: %s\n", d)
	}

	out, _, err := audio.Normalize(src, audio.Format{SampleRate: 48000, Channels: 2})
	if err != nil {
		log.Fatal(err)
	}

	buf := make([]float32, 4096)
	n, _ := out.ReadSamples(buf)
	fmt.Printf("Read %d samples\n", n)
}
