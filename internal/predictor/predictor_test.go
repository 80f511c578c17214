package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Deterministic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	stub := NewStub()
	image := []byte("fake image bytes")

	first, err := stub.Predict(image, "cell.png")
	require.NoError(err)
	second, err := stub.Predict(image, "cell.png")
	require.NoError(err)

	assert.Equal(first, second)
}

func Test_FilenameHints(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	stub := NewStub()
	image := []byte("some blood smear")

	res, err := stub.Predict(image, "parasitized_sample.png")
	require.NoError(err)
	assert.Equal("Parasitized", res.Prediction)

	res, err = stub.Predict(image, "uninfected_sample.png")
	require.NoError(err)
	assert.Equal("Uninfected", res.Prediction)
}

func Test_ResultShape(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	res, err := NewStub().Predict([]byte{1, 2, 3}, "cell.jpg")
	require.NoError(err)

	assert.GreaterOrEqual(res.Confidence, 0.85)
	assert.Less(res.Confidence, 0.99)
	assert.InDelta(1.0, res.ProbParasitized+res.ProbUninfected, 1e-9)
}
