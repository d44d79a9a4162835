package world

// FloatBuffer is a fixed-length day history. Index 0 is the current day.
type FloatBuffer struct {
	Values []float64 `json:"values"`
}

// NewFloatBuffer creates a zeroed history of size days.
func NewFloatBuffer(size int) *FloatBuffer {
	if size < 1 {
		size = 1
	}
	return &FloatBuffer{Values: make([]float64, size)}
}

// Add accumulates v into the current day.
func (b *FloatBuffer) Add(v float64) {
	b.Values[0] += v
}

// Next starts a new day, dropping the oldest value.
func (b *FloatBuffer) Next() {
	copy(b.Values[1:], b.Values[:len(b.Values)-1])
	b.Values[0] = 0
}

// Value returns the value i days ago.
func (b *FloatBuffer) Value(i int) float64 {
	if i < 0 || i >= len(b.Values) {
		return 0
	}
	return b.Values[i]
}

// Mean averages the whole history, the current day included.
func (b *FloatBuffer) Mean() float64 {
	sum := 0.0
	for _, v := range b.Values {
		sum += v
	}
	return sum / float64(len(b.Values))
}
