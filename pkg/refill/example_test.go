// Package refill provides example usage of the refilling pool.
package refill_test

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/refillpool/pkg/refill"
)

type frame struct {
	samples []float32
}

// Example demonstrates the basic get/release cycle.
func Example() {
	p, err := refill.New(8, 2, func() *frame {
		return &frame{samples: make([]float32, 256)}
	}, refill.WithName("frames"))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer p.Close()

	fmt.Println("available:", p.Available())
	fmt.Println("created:", p.CreatedSinceLastChecked())

	f := p.Get()
	f.samples[0] = 1
	p.Release(f)

	fmt.Println("available:", p.Available())

	// Output:
	// available: 8
	// created: 8
	// available: 8
}

// ExampleNew shows the only construction error.
func ExampleNew() {
	_, err := refill.New(10, 10, func() *frame { return &frame{} })

	var ce *refill.CreationError
	if errors.As(err, &ce) {
		fmt.Println(ce.Description)
	}

	// Output:
	// low_water_mark must be less than capacity
}
