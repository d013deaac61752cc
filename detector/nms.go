package detector

import (
	"sort"

	pigo "github.com/esimov/pigo/core"
)

// suppressNested drops every detection whose center falls inside a detection
// with a higher score. The survivors are returned by decreasing score.
func suppressNested(dets []pigo.Detection) []pigo.Detection {
	sorted := append([]pigo.Detection(nil), dets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Q > sorted[j].Q
	})

	kept := make([]pigo.Detection, 0, len(sorted))
	for _, d := range sorted {
		nested := false
		for _, k := range kept {
			if contains(k, d.Row, d.Col) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, d)
		}
	}
	return kept
}

// contains reports whether the point (row, col) lies in the square region of d.
func contains(d pigo.Detection, row, col int) bool {
	half := d.Scale / 2
	return row >= d.Row-half && row <= d.Row+half &&
		col >= d.Col-half && col <= d.Col+half
}

// filterScore keeps the detections scoring above the threshold.
func filterScore(dets []pigo.Detection, threshold float32) []pigo.Detection {
	kept := dets[:0:0]
	for _, d := range dets {
		if d.Q > threshold {
			kept = append(kept, d)
		}
	}
	return kept
}
