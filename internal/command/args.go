package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"nuncle.ai/internal/sim/geom"
)

var errArgCount = errors.New("wrong number of arguments")

type token struct {
	s   string
	off int
}

// args is a tokenized command line. Offsets into raw keep greedy
// arguments (chat text, item filters) intact.
type args struct {
	raw  string
	toks []token
}

func parse(line string) args {
	raw := strings.TrimPrefix(strings.TrimSpace(line), "/")
	var toks []token
	for i := 0; i < len(raw); {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) {
			break
		}
		j := i
		for j < len(raw) && !isSpace(raw[j]) {
			j++
		}
		toks = append(toks, token{s: raw[i:j], off: i})
		i = j
	}
	return args{raw: raw, toks: toks}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func (a args) len() int { return len(a.toks) }

func (a args) word(i int) string {
	if i < 0 || i >= len(a.toks) {
		return ""
	}
	return a.toks[i].s
}

func (a args) shift(n int) args {
	n = min(n, len(a.toks))
	return args{raw: a.raw, toks: a.toks[n:]}
}

// rest is the raw text from token i to the end of the line.
func (a args) rest(i int) string {
	if i >= len(a.toks) {
		return ""
	}
	return strings.TrimSpace(a.raw[a.toks[i].off:])
}

func (a args) float(i int) (float64, error) {
	f, err := strconv.ParseFloat(a.word(i), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", a.word(i))
	}
	return f, nil
}

func (a args) int(i int) (int, error) {
	n, err := strconv.Atoi(a.word(i))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", a.word(i))
	}
	return n, nil
}

func (a args) vec(i int) (geom.Vec3, error) {
	var v [3]float64
	for k := range v {
		f, err := a.float(i + k)
		if err != nil {
			return geom.Vec3{}, err
		}
		v[k] = f
	}
	return geom.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func (a args) block(i int) (geom.BlockPos, error) {
	var v [3]int
	for k := range v {
		n, err := a.int(i + k)
		if err != nil {
			return geom.BlockPos{}, err
		}
		v[k] = n
	}
	return geom.BlockPos{X: v[0], Y: v[1], Z: v[2]}, nil
}
