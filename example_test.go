package prone_test

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/prone"
	"github.com/hupe1980/prone/codec"
)

// ExampleCluster clusters four points into two well separated groups.
func ExampleCluster() {
	points := [][]float64{{0, 0}, {0, 1}, {10, 0}, {10, 1}}

	res, err := prone.Cluster(context.Background(), points, 2,
		prone.WithSeed(1),
		prone.WithRestarts(5),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("cost %.1f\n", res.TotalCost)
	fmt.Println("same cluster:", res.Assignment[0] == res.Assignment[1], res.Assignment[2] == res.Assignment[3])
	// Output:
	// cost 1.0
	// same cluster: true true
}

// ExampleBuildCoreset builds a weighted sample and stores it compressed.
func ExampleBuildCoreset() {
	points := make([][]float64, 0, 1000)
	for i := range 1000 {
		x := float64(i%10) + float64(i%7)/10
		points = append(points, []float64{x, float64(i % 3)})
	}

	cs, err := prone.BuildCoreset(context.Background(), points, 3, 50, prone.WithSeed(42))
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if err := codec.EncodeCoreset(&buf, cs, codec.CompressionZstd); err != nil {
		log.Fatal(err)
	}

	decoded, err := codec.DecodeCoreset(&buf)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(decoded.Len(), len(decoded.Weights))
	// Output: 50 50
}
