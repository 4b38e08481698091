package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// ActivationReLU is the only hidden activation the network supports.
const ActivationReLU = "relu"

// Layer is a dense layer. Weights are row-major In x Out.
type Layer struct {
	In      int       `json:"in"`
	Out     int       `json:"out"`
	Weights []float64 `json:"weights"`
	Biases  []float64 `json:"biases"`
}

// Network is a feed-forward classifier with ReLU hidden layers and a
// softmax output.
type Network struct {
	Activation string  `json:"activation"`
	Layers     []Layer `json:"layers"`
}

// NewNetwork initializes layers for the given sizes (input, hidden..., output)
// with Glorot-uniform weights.
func NewNetwork(sizes []int, rng *rand.Rand) *Network {
	n := &Network{Activation: ActivationReLU}
	for i := 0; i+1 < len(sizes); i++ {
		in, out := sizes[i], sizes[i+1]
		bound := math.Sqrt(6 / float64(in+out))
		l := Layer{
			In:      in,
			Out:     out,
			Weights: make([]float64, in*out),
			Biases:  make([]float64, out),
		}
		for k := range l.Weights {
			l.Weights[k] = (rng.Float64()*2 - 1) * bound
		}
		for k := range l.Biases {
			l.Biases[k] = (rng.Float64()*2 - 1) * bound
		}
		n.Layers = append(n.Layers, l)
	}
	return n
}

// InputSize is the expected feature count.
func (n *Network) InputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[0].In
}

// OutputSize is the number of classes.
func (n *Network) OutputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[len(n.Layers)-1].Out
}

// Hidden returns the hidden layer widths.
func (n *Network) Hidden() []int {
	var h []int
	for i := 0; i+1 < len(n.Layers); i++ {
		h = append(h, n.Layers[i].Out)
	}
	return h
}

// Validate checks layer shapes and that every parameter is finite.
func (n *Network) Validate() error {
	if n.Activation != ActivationReLU {
		return fmt.Errorf("unsupported activation %q", n.Activation)
	}
	if len(n.Layers) == 0 {
		return errors.New("network has no layers")
	}
	for i, l := range n.Layers {
		if l.In <= 0 || l.Out <= 0 {
			return fmt.Errorf("layer %d has invalid shape %dx%d", i, l.In, l.Out)
		}
		if len(l.Weights) != l.In*l.Out || len(l.Biases) != l.Out {
			return fmt.Errorf("layer %d parameters do not match shape %dx%d", i, l.In, l.Out)
		}
		if i > 0 && l.In != n.Layers[i-1].Out {
			return fmt.Errorf("layer %d input %d does not match previous output %d", i, l.In, n.Layers[i-1].Out)
		}
		for _, v := range l.Weights {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("layer %d has non-finite weights", i)
			}
		}
		for _, v := range l.Biases {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("layer %d has non-finite biases", i)
			}
		}
	}
	return nil
}

// forward returns the activations of every layer, input first.
func (n *Network) forward(x *mat.Dense) []*mat.Dense {
	rows, _ := x.Dims()
	acts := make([]*mat.Dense, 0, len(n.Layers)+1)
	acts = append(acts, x)
	cur := x
	for i, l := range n.Layers {
		w := mat.NewDense(l.In, l.Out, l.Weights)
		z := mat.NewDense(rows, l.Out, nil)
		z.Mul(cur, w)
		last := i == len(n.Layers)-1
		b := l.Biases
		z.Apply(func(_, j int, v float64) float64 {
			v += b[j]
			if !last && v < 0 {
				return 0
			}
			return v
		}, z)
		if last {
			softmaxRows(z)
		}
		acts = append(acts, z)
		cur = z
	}
	return acts
}

func softmaxRows(z *mat.Dense) {
	rows, _ := z.Dims()
	for i := 0; i < rows; i++ {
		row := z.RawRowView(i)
		maxV := math.Inf(-1)
		for _, v := range row {
			maxV = math.Max(maxV, v)
		}
		sum := 0.0
		for j, v := range row {
			row[j] = math.Exp(v - maxV)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
}

// Probabilities returns class probabilities for a single input row.
func (n *Network) Probabilities(x []float64) ([]float64, error) {
	if len(x) != n.InputSize() {
		return nil, fmt.Errorf("input has %d features, network expects %d", len(x), n.InputSize())
	}
	in := mat.NewDense(1, len(x), append([]float64(nil), x...))
	acts := n.forward(in)
	out := acts[len(acts)-1].RawRowView(0)
	p := make([]float64, len(out))
	for j, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite probability for class %d", j)
		}
		p[j] = v
	}
	return p, nil
}

// PredictBatch returns the argmax class of every row.
func (n *Network) PredictBatch(rows [][]float64) []int {
	if len(rows) == 0 {
		return nil
	}
	acts := n.forward(toDense(rows))
	out := acts[len(acts)-1]
	pred := make([]int, len(rows))
	for i := range rows {
		pred[i] = Argmax(out.RawRowView(i))
	}
	return pred
}

// InputImportance is the mean absolute first-layer weight per input.
func (n *Network) InputImportance() []float64 {
	if len(n.Layers) == 0 {
		return nil
	}
	l := n.Layers[0]
	imp := make([]float64, l.In)
	for i := 0; i < l.In; i++ {
		row := l.Weights[i*l.Out : (i+1)*l.Out]
		sum := 0.0
		for _, w := range row {
			sum += math.Abs(w)
		}
		imp[i] = sum / float64(l.Out)
	}
	return imp
}

func (n *Network) clone() *Network {
	c := &Network{Activation: n.Activation, Layers: make([]Layer, len(n.Layers))}
	for i, l := range n.Layers {
		c.Layers[i] = Layer{
			In:      l.In,
			Out:     l.Out,
			Weights: append([]float64(nil), l.Weights...),
			Biases:  append([]float64(nil), l.Biases...),
		}
	}
	return c
}

// Argmax returns the index of the largest value, the first one on ties.
func Argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func toDense(rows [][]float64) *mat.Dense {
	d := len(rows[0])
	data := make([]float64, 0, len(rows)*d)
	for _, r := range rows {
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), d, data)
}
