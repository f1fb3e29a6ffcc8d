package crop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Palette colors distribution segments in order, wrapping around.
var Palette = []string{"#8884d8", "#82ca9d", "#ffc658", "#ff8042", "#0088FE", "#00C49F"}

// maxCropCount bounds a single by_crop count so that Total cannot overflow.
const maxCropCount = math.MaxInt32

// CropCount is the number of predictions made for one crop.
type CropCount struct {
	Crop  string `json:"crop"`
	Count int    `json:"count"`
}

// CropCounts keeps the by_crop object of the stats response in document order.
type CropCounts []CropCount

// UnmarshalJSON decodes a {"crop": count} object without losing key order.
func (c *CropCounts) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("by_crop: expected object, got %v", tok)
	}

	var out CropCounts
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("by_crop[%s]: %w", name, err)
		}
		v, err := n.Int64()
		if err != nil || v < 0 || v > maxCropCount {
			return fmt.Errorf("by_crop[%s]: invalid count %q", name, n)
		}
		out = append(out, CropCount{Crop: name, Count: int(v)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// MarshalJSON renders the counts back as an object in the same order.
func (c CropCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cc.Crop)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", cc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Total sums all counts.
func (c CropCounts) Total() int {
	total := 0
	for _, cc := range c {
		total += cc.Count
	}
	return total
}

// Segment is one slice of the crop distribution pie.
type Segment struct {
	Name    string  `json:"name"`
	Count   int     `json:"value"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
}

// Distribution turns crop counts into labelled pie segments. It returns nil when
// there is nothing to draw.
func Distribution(counts CropCounts) []Segment {
	total := counts.Total()
	if total == 0 {
		return nil
	}
	segs := make([]Segment, 0, len(counts))
	for i, cc := range counts {
		pct := float64(cc.Count) / float64(total) * 100
		segs = append(segs, Segment{
			Name:    cc.Crop,
			Count:   cc.Count,
			Percent: pct,
			Label:   fmt.Sprintf("%s: %.0f%%", cc.Crop, pct),
			Color:   Palette[i%len(Palette)],
		})
	}
	return segs
}
