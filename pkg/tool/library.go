package tool

import (
	"fmt"
	"sort"
)

// library holds the built-in tools keyed by id. The 1xx range is flats,
// 2xx ballnoses and 3xx v-bits.
var library = map[int]Profile{
	101: {ID: 101, Name: "1/8in flat", Diameter: 3.175, Stepover: 1.5, DepthOfCut: 1.0, Shape: Flat},
	102: {ID: 102, Name: "1/4in flat", Diameter: 6.35, Stepover: 3.0, DepthOfCut: 2.0, Shape: Flat},
	103: {ID: 103, Name: "1/2in flat", Diameter: 12.7, Stepover: 6.0, DepthOfCut: 3.0, Shape: Flat},
	106: {ID: 106, Name: "6mm flat", Diameter: 6, Stepover: 3, DepthOfCut: 1.5, Shape: Flat},
	201: {ID: 201, Name: "1/16in ballnose", Diameter: 1.5875, Stepover: 0.5, DepthOfCut: 0.5, Shape: Ballnose},
	202: {ID: 202, Name: "1/8in ballnose", Diameter: 3.175, Stepover: 1.0, DepthOfCut: 1.0, Shape: Ballnose},
	203: {ID: 203, Name: "1/4in ballnose", Diameter: 6.35, Stepover: 2.0, DepthOfCut: 2.0, Shape: Ballnose},
	301: {ID: 301, Name: "60deg v-bit", Diameter: 6.35, Stepover: 0.5, DepthOfCut: 1.0, Shape: Vbit, Angle: 60},
	302: {ID: 302, Name: "90deg v-bit", Diameter: 12.7, Stepover: 0.5, DepthOfCut: 1.0, Shape: Vbit, Angle: 90},
}

// Library returns the built-in tools sorted by id.
func Library() []Profile {
	out := make([]Profile, 0, len(library))
	for _, p := range library {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns the built-in tool with the given id.
func Lookup(id int) (Profile, error) {
	p, ok := library[id]
	if !ok {
		return Profile{}, fmt.Errorf("tool: no library tool with id %d", id)
	}
	return p, nil
}
