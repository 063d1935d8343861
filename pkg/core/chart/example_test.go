package chart_test

import (
	"fmt"

	"github.com/matzehuels/chartpad/pkg/core/chart"
)

func ExampleBins() {
	for _, b := range chart.Bins([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5) {
		fmt.Println(b.Label, b.Count)
	}
	// Output:
	// 1–2.8 2
	// 2.8–4.6 2
	// 4.6–6.4 2
	// 6.4–8.2 2
	// 8.2–10 2
}
