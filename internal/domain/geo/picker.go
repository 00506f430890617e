package geo

// Picker is the state of the map dialog: one draggable marker.
//
// A Picker opened on an unparseable value starts at DefaultCenter with no
// marker; Confirm is then a no-op until Move places one.
type Picker struct {
	Center Point `json:"center"`
	Zoom   int   `json:"zoom"`
	Marker Point `json:"marker"`
	placed bool
}

// Open centers on current when it parses, otherwise on DefaultCenter.
func Open(current string) *Picker {
	p := &Picker{Center: DefaultCenter, Zoom: DefaultZoom}
	if pt, err := Parse(current); err == nil {
		p.Center = pt
		p.Marker = pt
		p.placed = true
	}
	return p
}

// Move repositions the marker, by drag or by clicking the map. A point
// off the globe is ignored.
func (p *Picker) Move(pt Point) {
	if !pt.valid() {
		return
	}
	p.Marker = pt
	p.placed = true
}

// Live is the pair shown under the map while the user drags.
func (p *Picker) Live() string {
	if !p.placed {
		return ""
	}
	return Format(p.Marker)
}

// Placed reports whether a marker exists.
func (p *Picker) Placed() bool { return p.placed }

// Confirm returns the formatted value to write into the form. changed is
// true when it differs from previous, so dependent UI can refresh.
func (p *Picker) Confirm(previous string) (value string, changed bool, err error) {
	if !p.placed {
		return "", false, ErrInvalid
	}
	value = Format(p.Marker)
	return value, value != previous, nil
}
