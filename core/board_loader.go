package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// internal JSON shapes. Required fields are pointers so absence can be told
// apart from zero. A null or absent netName decodes to "" and the object is
// later dropped as unconnected.
type boardJSON struct {
	Components []componentJSON `json:"components"`
	Tracks     []trackJSON     `json:"tracks"`
	Arcs       []arcJSON       `json:"arcs"`
	Vias       []viaJSON       `json:"vias"`
}

type componentJSON struct {
	Designator *string   `json:"designator"`
	Layer      *int      `json:"layer"`
	Pads       []padJSON `json:"pads"`
}

type padJSON struct {
	PadNumber *padNumber `json:"padNumber"`
	NetName   string     `json:"netName"`
	Location  *pointJSON `json:"location"`
	Layer     *int       `json:"layer"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	HoleSize  float64    `json:"holeSize"`
	Rotation  float64    `json:"rotation"`
	Shape     string     `json:"shape"`
}

type trackJSON struct {
	Start   *pointJSON `json:"start"`
	End     *pointJSON `json:"end"`
	NetName string     `json:"netName"`
	Layer   *int       `json:"layer"`
	Length  *float64   `json:"length"`
	Width   float64    `json:"width"`
}

type arcJSON struct {
	Center     *pointJSON `json:"center"`
	Radius     *float64   `json:"radius"`
	StartAngle *float64   `json:"startAngle"`
	EndAngle   *float64   `json:"endAngle"`
	Start      *pointJSON `json:"start"`
	End        *pointJSON `json:"end"`
	NetName    string     `json:"netName"`
	Layer      *int       `json:"layer"`
	Length     *float64   `json:"length"`
	Width      float64    `json:"width"`
}

type viaJSON struct {
	Location  *pointJSON `json:"location"`
	NetName   string     `json:"netName"`
	FromLayer *int       `json:"fromLayer"`
	ToLayer   *int       `json:"toLayer"`
	HoleSize  float64    `json:"holeSize"`
}

type pointJSON struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// padNumber accepts both "11" and 11; CAD exports disagree.
type padNumber string

func (n *padNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = padNumber(s)
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("pad number must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(f.String(), 10, 64); err == nil {
		*n = padNumber(strconv.FormatInt(i, 10))
		return nil
	}
	*n = padNumber(f.String())
	return nil
}

// DecodeBoard reads a board JSON document. It is all-or-nothing: any missing
// required field fails the whole decode with a *LoadError.
func DecodeBoard(r io.Reader) (BoardData, error) {
	var payload boardJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return BoardData{}, &LoadError{Index: -1, Err: fmt.Errorf("decode failed: %w", err)}
	}

	var data BoardData
	for ci, jc := range payload.Components {
		if jc.Designator == nil {
			return BoardData{}, missing("components", ci, "designator")
		}
		layer := 1
		if jc.Layer != nil {
			layer = *jc.Layer
		}
		comp := Component{Designator: *jc.Designator, Layer: layer}
		for pi, jp := range jc.Pads {
			pad, err := jp.toPad(comp, ci, pi)
			if err != nil {
				return BoardData{}, err
			}
			comp.Pads = append(comp.Pads, pad)
		}
		data.Components = append(data.Components, comp)
	}

	for i, jt := range payload.Tracks {
		t, err := jt.toTrack(i)
		if err != nil {
			return BoardData{}, err
		}
		data.Tracks = append(data.Tracks, t)
	}
	for i, ja := range payload.Arcs {
		a, err := ja.toArc(i)
		if err != nil {
			return BoardData{}, err
		}
		data.Arcs = append(data.Arcs, a)
	}
	for i, jv := range payload.Vias {
		v, err := jv.toVia(i)
		if err != nil {
			return BoardData{}, err
		}
		data.Vias = append(data.Vias, v)
	}
	return data, nil
}

func (jp padJSON) toPad(comp Component, ci, pi int) (*model.Pad, error) {
	section := fmt.Sprintf("components[%d].pads", ci)
	if jp.PadNumber == nil {
		return nil, missing(section, pi, "padNumber")
	}
	loc, err := jp.Location.point(section, pi, "location")
	if err != nil {
		return nil, err
	}
	layer := comp.Layer
	if jp.Layer != nil {
		layer = *jp.Layer
	}
	return &model.Pad{
		Designator: comp.Designator,
		Number:     string(*jp.PadNumber),
		Net:        jp.NetName,
		Location:   loc,
		Layer:      layer,
		Width:      jp.Width,
		Height:     jp.Height,
		HoleSize:   jp.HoleSize,
		Rotation:   jp.Rotation,
		Shape:      model.ParsePadShape(jp.Shape),
	}, nil
}

func (jt trackJSON) toTrack(i int) (*model.Track, error) {
	start, err := jt.Start.point("tracks", i, "start")
	if err != nil {
		return nil, err
	}
	end, err := jt.End.point("tracks", i, "end")
	if err != nil {
		return nil, err
	}
	switch {
	case jt.Layer == nil:
		return nil, missing("tracks", i, "layer")
	case jt.Length == nil:
		return nil, missing("tracks", i, "length")
	}
	return &model.Track{
		Start:      start,
		End:        end,
		Net:        jt.NetName,
		Layer:      *jt.Layer,
		LengthMils: *jt.Length,
		Width:      jt.Width,
	}, nil
}

func (ja arcJSON) toArc(i int) (*model.Arc, error) {
	center, err := ja.Center.point("arcs", i, "center")
	if err != nil {
		return nil, err
	}
	start, err := ja.Start.point("arcs", i, "start")
	if err != nil {
		return nil, err
	}
	end, err := ja.End.point("arcs", i, "end")
	if err != nil {
		return nil, err
	}
	switch {
	case ja.Radius == nil:
		return nil, missing("arcs", i, "radius")
	case ja.StartAngle == nil:
		return nil, missing("arcs", i, "startAngle")
	case ja.EndAngle == nil:
		return nil, missing("arcs", i, "endAngle")
	case ja.Layer == nil:
		return nil, missing("arcs", i, "layer")
	case ja.Length == nil:
		return nil, missing("arcs", i, "length")
	}
	return &model.Arc{
		Center:     center,
		Radius:     *ja.Radius,
		StartAngle: *ja.StartAngle,
		EndAngle:   *ja.EndAngle,
		Start:      start,
		End:        end,
		Net:        ja.NetName,
		Layer:      *ja.Layer,
		LengthMils: *ja.Length,
		Width:      ja.Width,
	}, nil
}

func (jv viaJSON) toVia(i int) (*model.Via, error) {
	loc, err := jv.Location.point("vias", i, "location")
	if err != nil {
		return nil, err
	}
	switch {
	case jv.FromLayer == nil:
		return nil, missing("vias", i, "fromLayer")
	case jv.ToLayer == nil:
		return nil, missing("vias", i, "toLayer")
	}
	return &model.Via{
		Location:  loc,
		Net:       jv.NetName,
		FromLayer: *jv.FromLayer,
		ToLayer:   *jv.ToLayer,
		HoleSize:  jv.HoleSize,
	}, nil
}

func (p *pointJSON) point(section string, index int, field string) (model.Point, error) {
	if p == nil {
		return model.Point{}, missing(section, index, field)
	}
	if p.X == nil {
		return model.Point{}, missing(section, index, field+".x")
	}
	if p.Y == nil {
		return model.Point{}, missing(section, index, field+".y")
	}
	return model.Point{X: *p.X, Y: *p.Y}, nil
}
