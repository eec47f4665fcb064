package protocol

// Limits constrains decode memory and stack use on untrusted input.
type Limits struct {
	MaxDepth        int
	MaxListSize     int
	MaxMapSize      int
	MaxStringLength int
	MaxBytesLength  int
	AllowNaN        bool
	AllowInfinity   bool
}

func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        64,
		MaxListSize:     100000,
		MaxMapSize:      100000,
		MaxStringLength: 10000000,
		MaxBytesLength:  100000000,
		AllowNaN:        true,
		AllowInfinity:   true,
	}
}

// Normalize fills zero-valued bounds with defaults. Float flags are kept.
func (l Limits) Normalize() Limits {
	d := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxListSize <= 0 {
		l.MaxListSize = d.MaxListSize
	}
	if l.MaxMapSize <= 0 {
		l.MaxMapSize = d.MaxMapSize
	}
	if l.MaxStringLength <= 0 {
		l.MaxStringLength = d.MaxStringLength
	}
	if l.MaxBytesLength <= 0 {
		l.MaxBytesLength = d.MaxBytesLength
	}
	return l
}
