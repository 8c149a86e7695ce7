package core

import (
	"fmt"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// PathResult describes a traced path from one terminal to another.
type PathResult struct {
	Exists      bool          `json:"path_exists"`
	From        model.PadRef  `json:"from"`
	To          model.PadRef  `json:"to"`
	Net         string        `json:"net,omitempty"`
	LengthMM    float64       `json:"length_mm"`
	Description string        `json:"path_description,omitempty"`
	Elements    []PathElement `json:"path_elements,omitempty"`
	Strategy    string        `json:"strategy_used,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// PathElement is one primitive along a path. Fields that do not apply to
// the element's type are left zero.
type PathElement struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Net   string `json:"net"`
	Layer int    `json:"layer,omitempty"`

	Component string       `json:"component,omitempty"`
	Pad       string       `json:"pad,omitempty"`
	Location  *model.Point `json:"location,omitempty"`

	Start      *model.Point `json:"start,omitempty"`
	End        *model.Point `json:"end,omitempty"`
	Center     *model.Point `json:"center,omitempty"`
	Radius     float64      `json:"radius,omitempty"`
	StartAngle float64      `json:"start_angle,omitempty"`
	EndAngle   float64      `json:"end_angle,omitempty"`
	Width      float64      `json:"width,omitempty"`

	FromLayer int `json:"from_layer,omitempty"`
	ToLayer   int `json:"to_layer,omitempty"`

	// LengthMils is the source length; LengthMM the same in millimetres.
	LengthMils float64 `json:"length,omitempty"`
	LengthMM   float64 `json:"length_mm"`
}

func newPathResult(b *Board, r *route, from, to model.PadRef) *PathResult {
	nodes := r.orientedNodes(from)
	res := &PathResult{
		Exists:   true,
		From:     from,
		To:       to,
		Net:      r.net,
		LengthMM: r.lengthMils * model.MilsToMM,
		Strategy: r.strategy,
		Elements: make([]PathElement, 0, len(nodes)),
	}
	for i, idx := range nodes {
		res.Elements = append(res.Elements, pathElement(i, b.objects[idx]))
	}
	res.Description = fmt.Sprintf("Path from %s to %s (%d elements, %.5f mm)", from, to, len(nodes), res.LengthMM)
	return res
}

func pathElement(i int, obj model.Object) PathElement {
	el := PathElement{
		Index:      i,
		Type:       obj.Kind().String(),
		Net:        obj.NetName(),
		LengthMils: obj.Length(),
		LengthMM:   obj.Length() * model.MilsToMM,
	}
	switch o := obj.(type) {
	case *model.Pad:
		loc := o.Location
		el.Component, el.Pad, el.Location, el.Layer = o.Designator, o.Number, &loc, o.Layer
	case *model.Track:
		start, end := o.Start, o.End
		el.Start, el.End, el.Layer, el.Width = &start, &end, o.Layer, o.Width
	case *model.Arc:
		start, end, center := o.Start, o.End, o.Center
		el.Start, el.End, el.Center, el.Layer, el.Width = &start, &end, &center, o.Layer, o.Width
		el.Radius, el.StartAngle, el.EndAngle = o.Radius, o.StartAngle, o.EndAngle
	case *model.Via:
		loc := o.Location
		el.Location, el.FromLayer, el.ToLayer = &loc, o.FromLayer, o.ToLayer
	}
	return el
}
