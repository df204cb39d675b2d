package analysis

import "math"

// Neighbourhood is a named reference point used for reverse geocoding.
type Neighbourhood struct {
	Name string
	Area string
	Lat  float64
	Lng  float64
}

func (n Neighbourhood) Label() string { return n.Name + ", " + n.Area }

// Neighbourhoods are the known Bangalore reference points.
var Neighbourhoods = []Neighbourhood{
	{"MG Road", "near Trinity Metro Station", 12.9716, 77.604},
	{"Indiranagar", "100 Feet Road junction", 12.9784, 77.6408},
	{"Koramangala", "5th Block main road", 12.9352, 77.6245},
	{"Whitefield", "ITPL Main Road", 12.9698, 77.7499},
	{"HSR Layout", "Sector 1 junction", 12.9121, 77.6446},
	{"Jayanagar", "4th Block", 12.925, 77.5838},
	{"Electronic City", "Phase 1 entrance", 12.8456, 77.6603},
	{"Marathahalli", "Outer Ring Road", 12.9591, 77.7011},
	{"Banashankari", "2nd Stage", 12.925, 77.5486},
	{"Yelahanka", "New Town main road", 13.1007, 77.5963},
	{"BTM Layout", "2nd Stage", 12.9166, 77.6101},
	{"JP Nagar", "6th Phase", 12.9063, 77.5857},
	{"Malleshwaram", "8th Cross", 13.0035, 77.5647},
	{"Rajajinagar", "Industrial Town", 12.9914, 77.5538},
	{"Hebbal", "Outer Ring Road junction", 13.0358, 77.5971},
}

// Nearest returns the reference point closest to (lat, lng) in plain degree
// distance.
func Nearest(lat, lng float64) Neighbourhood {
	best := Neighbourhoods[0]
	min := math.MaxFloat64
	for _, n := range Neighbourhoods {
		d := math.Hypot(lat-n.Lat, lng-n.Lng)
		if d < min {
			min = d
			best = n
		}
	}
	return best
}

// ReverseGeocode returns the "<name>, <area>" label of the nearest neighbourhood.
func ReverseGeocode(lat, lng float64) string {
	return Nearest(lat, lng).Label()
}
