package mugshot

import (
	"image"
	"image/color"

	"github.com/esimov/mugshot/imop"
	"github.com/esimov/mugshot/utils"
)

// Framing constants of an acceptable portrait.
const (
	aspect4by3     = 4.0 / 3.0
	cropGrowth     = 1.3
	maxEyeSlope    = 0.2
	maxCenterShift = 0.05
	minZoom        = 0.2
)

// Guide ellipse drawn on the viewfinder.
const (
	guideWidth     = 300
	guideHeight    = 400
	guideThickness = 2
)

var (
	acceptColor = color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	rejectColor = color.NRGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
)

// RejectReason tells which framing check a frame failed.
type RejectReason int

// The framing checks in evaluation order.
const (
	Accepted RejectReason = iota
	NoFace
	MultipleFaces
	NoRoi
	OutOfBounds
	MissingEyes
	VerticalEyes
	Tilted
	OffCenter
	TooSmall
)

var reasonNames = [...]string{
	Accepted:      "accepted",
	NoFace:        "no face",
	MultipleFaces: "multiple faces",
	NoRoi:         "no face region",
	OutOfBounds:   "crop out of bounds",
	MissingEyes:   "eyes not found",
	VerticalEyes:  "eyes vertically aligned",
	Tilted:        "head tilted",
	OffCenter:     "face off center",
	TooSmall:      "face too small",
}

func (r RejectReason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// CheckMugshot evaluates whether the detected faces form an acceptable mugshot
// on a canvas of the given bounds. It returns the verdict and the candidate crop.
// The crop is meaningful only when the verdict is true.
func CheckMugshot(faces []FaceModel, canvas image.Rectangle) (bool, image.Rectangle) {
	ok, crop, _ := EvaluateMugshot(faces, canvas)
	return ok, crop
}

// EvaluateMugshot is like CheckMugshot but also reports the first failed check.
func EvaluateMugshot(faces []FaceModel, canvas image.Rectangle) (bool, image.Rectangle, RejectReason) {
	switch {
	case len(faces) == 0:
		return false, image.Rectangle{}, NoFace
	case len(faces) > 1:
		return false, image.Rectangle{}, MultipleFaces
	}
	face := faces[0]
	if !face.Roi.Has {
		return false, image.Rectangle{}, NoRoi
	}
	roi := face.Roi.Value.Image()
	w, h := roi.Dx(), roi.Dy()
	if w <= 0 || h <= 0 {
		return false, image.Rectangle{}, NoRoi
	}

	crop := cropRegion(roi)
	if crop.Intersect(canvas) != crop {
		return false, crop, OutOfBounds
	}

	if !face.EyeLeftCenter.Has || !face.EyeRightCenter.Has {
		return false, crop, MissingEyes
	}
	left, right := face.EyeLeftCenter.Value, face.EyeRightCenter.Value
	dx := left.X - right.X
	if dx == 0 {
		return false, crop, VerticalEyes
	}
	if utils.Abs((left.Y-right.Y)/dx) > maxEyeSlope {
		return false, crop, Tilted
	}

	cw, ch := canvas.Dx(), canvas.Dy()
	cx := roi.Min.X + w>>1 - (canvas.Min.X + cw/2)
	cy := roi.Min.Y + h>>1 - (canvas.Min.Y + ch/2)
	if float64(cx*cx+cy*cy) > maxCenterShift*float64(cw*cw) {
		return false, crop, OffCenter
	}

	if float64(area(crop)) < minZoom*float64(area(canvas)) {
		return false, crop, TooSmall
	}

	return true, crop, Accepted
}

// cropRegion computes the 4:3 portrait crop centered on the face region,
// grown by a fixed margin along the dominant face dimension.
func cropRegion(roi image.Rectangle) image.Rectangle {
	w, h := roi.Dx(), roi.Dy()

	size := image.Pt(
		int(cropGrowth*float64(w)),
		int(cropGrowth*float64(w)*aspect4by3),
	)
	if float64(w)/float64(h) < 1 {
		size = image.Pt(
			int(cropGrowth*float64(h)/aspect4by3),
			int(cropGrowth*float64(h)),
		)
	}

	center := image.Pt(roi.Min.X+w>>1, roi.Min.Y+h>>1)
	origin := center.Sub(size.Div(2))

	return image.Rectangle{Min: origin, Max: origin.Add(size)}
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// Annotate draws the framing guide onto the display canvas, green when the frame
// qualifies and red otherwise. When crop is not empty its mirrored outline is drawn too.
func Annotate(canvas *image.NRGBA, ok bool, crop image.Rectangle) {
	col := rejectColor
	if ok {
		col = acceptColor
	}

	b := canvas.Bounds()
	layer := imop.NewLayer(b)
	center := image.Pt(b.Min.X+b.Dx()>>1, b.Min.Y+b.Dy()>>1)
	imop.StrokeEllipse(layer, center, guideWidth/2, guideHeight/2, guideThickness, col)

	if !crop.Empty() {
		mirrored := image.Rect(
			b.Min.X+b.Max.X-crop.Max.X, crop.Min.Y,
			b.Min.X+b.Max.X-crop.Min.X, crop.Max.Y,
		)
		imop.StrokeRect(layer, mirrored, guideThickness, col)
	}

	op := imop.NewComposite()
	op.Set(imop.SrcOver)
	op.Draw(canvas, layer, b.Min)
}
