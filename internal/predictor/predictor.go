package predictor

import (
	"hash/fnv"
	"strings"
)

// Result mirrors the response shape of the prediction endpoints.
type Result struct {
	Prediction      string
	Confidence      float64
	ProbParasitized float64
	ProbUninfected  float64
}

// Predictor classifies a blood smear image.
type Predictor interface {
	Predict(image []byte, filename string) (*Result, error)
}

// Stub is a deterministic stand-in for the real model: class and
// confidence are derived from the image bytes so repeated scans of
// the same file agree, and filenames hinting at the class are
// honored the way the demo frontend did.
type Stub struct{}

func NewStub() Predictor {
	return &Stub{}
}

func (s *Stub) Predict(image []byte, filename string) (*Result, error) {
	h := fnv.New64a()
	h.Write(image)
	sum := h.Sum64()

	name := strings.ToLower(filename)
	parasitized := sum%2 == 1
	if strings.Contains(name, "uninfected") {
		parasitized = false
	} else if strings.Contains(name, "parasitized") || strings.Contains(name, "infected") {
		parasitized = true
	}

	// Confidence in the 85-99% band the demo produced.
	confidence := 0.85 + float64(sum%1400)/10000

	probParasitized := confidence
	if !parasitized {
		probParasitized = 1 - confidence
	}

	prediction := "Uninfected"
	if parasitized {
		prediction = "Parasitized"
	}

	return &Result{
		Prediction:      prediction,
		Confidence:      confidence,
		ProbParasitized: probParasitized,
		ProbUninfected:  1 - probParasitized,
	}, nil
}
