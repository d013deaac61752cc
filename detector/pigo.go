// Package detector implements the face detector and landmark regressor on top of
// the pigo cascade classifiers.
package detector

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/esimov/mugshot"
	"github.com/esimov/mugshot/config"
	"github.com/esimov/mugshot/utils"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

var (
	eyebrowCascade = "lp312"
	noseCascade    = "lp93"
	mouthCascade   = "lp84"
	flpCascades    = []string{eyebrowCascade, noseCascade, mouthCascade}
)

// Options tunes the cascade scan.
type Options struct {
	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64

	// Scale multiplies the minimum and maximum face sizes.
	Scale float64

	// DoNMS clusters overlapping detections, IoU being the overlap threshold.
	DoNMS bool
	IoU   float64

	// DoNMSGlobal drops detections nested into stronger ones.
	DoNMSGlobal bool

	// QThreshold is the minimum detection score, CascadeCal is added to it.
	QThreshold float32
	CascadeCal float64
}

// DefaultOptions returns the options used by the capture tool.
func DefaultOptions() Options {
	return Options{
		MinSize:     100,
		MaxSize:     1000,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		Scale:       1,
		DoNMS:       true,
		IoU:         0.2,
		DoNMSGlobal: true,
		QThreshold:  5.0,
	}
}

// OptionsFrom builds the detector options from the capture settings.
func OptionsFrom(t config.Tuning, scale float64) Options {
	opts := DefaultOptions()
	opts.MinSize = t.MinSize
	opts.MaxSize = t.MaxSize
	opts.ShiftFactor = t.ShiftFactor
	opts.ScaleFactor = t.ScaleFactor
	opts.IoU = t.IoU
	opts.DoNMS = t.NMS
	opts.DoNMSGlobal = t.GlobalNMS
	opts.CascadeCal = t.CascadeCal
	if scale > 0 {
		opts.Scale = scale
	}
	return opts
}

// Pigo detects faces with the pigo face finder, localizes the pupils with the
// puploc cascade and regresses the remaining landmarks with the flp cascades.
// A Pigo value must not be shared between goroutines.
type Pigo struct {
	opts Options
	mean MeanFace

	face   *pigo.Pigo
	puploc *pigo.PuplocCascade
	flpcs  map[string]*pigo.PuplocCascade
}

var _ mugshot.Detector = (*Pigo)(nil)

// NewPigo unpacks the cascades referenced by the asset bundle.
func NewPigo(assets *config.Assets, opts Options) (*Pigo, error) {
	if assets == nil {
		return nil, errors.New("no model assets")
	}
	if err := assets.Check(); err != nil {
		return nil, err
	}

	data, err := utils.FetchFile(assets.FaceDetector)
	if err != nil {
		return nil, errors.Wrap(err, "error reading the facefinder cascade file")
	}
	// Unpack the binary file. This will return the number of cascade trees,
	// the tree depth, the threshold and the prediction from tree's leaf nodes.
	face, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking the facefinder cascade file")
	}

	data, err = utils.FetchFile(assets.EyeRegressor)
	if err != nil {
		return nil, errors.Wrap(err, "error reading the puploc cascade file")
	}
	puploc, err := pigo.NewPuplocCascade().UnpackCascade(data)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking the puploc cascade file")
	}

	flpcs, err := loadFlpCascades(assets.FaceRegressor)
	if err != nil {
		return nil, err
	}

	mean, err := LoadMeanFace(assets.FaceDetectorMean)
	if err != nil {
		return nil, err
	}

	return &Pigo{
		opts:   opts,
		mean:   mean,
		face:   face,
		puploc: puploc,
		flpcs:  flpcs,
	}, nil
}

// loadFlpCascades unpacks the facial landmark cascades from a directory or a URL prefix.
func loadFlpCascades(dir string) (map[string]*pigo.PuplocCascade, error) {
	flpcs := make(map[string]*pigo.PuplocCascade, len(flpCascades))
	remote := utils.IsValidUrl(dir)

	for _, name := range flpCascades {
		path := filepath.Join(dir, name)
		if remote {
			path = strings.TrimSuffix(dir, "/") + "/" + name
		} else if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "missing facial landmark cascade %s", name)
		}

		data, err := utils.FetchFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading the %s cascade file", name)
		}
		flpc, err := pigo.NewPuplocCascade().UnpackCascade(data)
		if err != nil {
			return nil, errors.Wrapf(err, "error unpacking the %s cascade file", name)
		}
		flpcs[name] = flpc
	}
	return flpcs, nil
}

// WindowSize returns the smallest face size, in detection pixels, scanned by the cascade.
func (p *Pigo) WindowSize() image.Point {
	s := p.minSize()
	return image.Pt(s, s)
}

func (p *Pigo) minSize() int {
	s := int(float64(p.opts.MinSize) * p.opts.Scale)
	return utils.Max(s, 1)
}

// Detect implements mugshot.Detector.
func (p *Pigo) Detect(planar *mugshot.Planar, padded mugshot.PaddedImage, hdr mugshot.Mat3) ([]mugshot.FaceModel, error) {
	if planar == nil || planar.Rows == 0 || planar.Cols == 0 {
		return nil, mugshot.ErrEmptyFrame
	}

	// The planar image is transposed: rows run along the frame width.
	cParams := pigo.CascadeParams{
		MinSize:     p.minSize(),
		MaxSize:     utils.Max(p.minSize(), int(float64(p.opts.MaxSize)*p.opts.Scale)),
		ShiftFactor: p.opts.ShiftFactor,
		ScaleFactor: p.opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: planar.Luma(),
			Rows:   planar.Rows,
			Cols:   planar.Cols,
			Dim:    planar.Cols,
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := p.face.RunCascade(cParams, 0.0)
	if p.opts.DoNMS {
		dets = p.face.ClusterDetections(dets, p.opts.IoU)
	}
	dets = filterScore(dets, p.opts.QThreshold+float32(p.opts.CascadeCal))
	if p.opts.DoNMSGlobal {
		dets = suppressNested(dets)
	}

	img := regressionParams(padded)
	faces := make([]mugshot.FaceModel, 0, len(dets))
	for _, det := range dets {
		face := mugshot.FaceModel{
			Roi: mugshot.Some(hdr.ApplyRect(detectionRoi(det))),
			Q:   det.Q,
		}
		p.regress(&face, img, padded.Roi)
		faces = append(faces, face)
	}
	return faces, nil
}

// detectionRoi converts a detection of the transposed image into a frame aligned square.
func detectionRoi(det pigo.Detection) mugshot.Rect {
	s := float64(det.Scale)
	return mugshot.Rect{
		X: float64(det.Row) - s/2,
		Y: float64(det.Col) - s/2,
		W: s,
		H: s,
	}
}

// regressionParams wraps the regression image for the pupil and landmark cascades.
func regressionParams(padded mugshot.PaddedImage) pigo.ImageParams {
	b := padded.Image.Bounds()
	return pigo.ImageParams{
		Pixels: padded.Image.Pix,
		Rows:   b.Dy(),
		Cols:   b.Dx(),
		Dim:    padded.Image.Stride,
	}
}

// regress localizes the pupils and, when both are found, the remaining landmarks.
func (p *Pigo) regress(face *mugshot.FaceModel, img pigo.ImageParams, roi image.Rectangle) {
	r := face.Roi.Value
	c := r.Center()
	s := r.W

	seed := func(sign float64) pigo.Puploc {
		return pigo.Puploc{
			Row:      int(c.Y - p.mean.EyeRow*s),
			Col:      int(c.X + sign*p.mean.EyeCol*s),
			Scale:    float32(s * p.mean.EyeScale),
			Perturbs: p.mean.Perturbs,
		}
	}

	left := p.puploc.RunDetector(seed(-1), img, 0.0, false)
	right := p.puploc.RunDetector(seed(1), img, 0.0, false)

	var ok bool
	if face.EyeLeftCenter, ok = landmark(left, roi); !ok {
		return
	}
	if face.EyeRightCenter, ok = landmark(right, roi); !ok {
		return
	}

	find := func(name string, flip bool) mugshot.Field[mugshot.Point] {
		flpc, found := p.flpcs[name]
		if !found {
			return mugshot.Field[mugshot.Point]{}
		}
		pt, _ := landmark(flpc.GetLandmarkPoint(left, right, img, p.mean.Perturbs, flip), roi)
		return pt
	}

	face.NoseTip = find(noseCascade, false)
	face.MouthCornerLeft = find(mouthCascade, false)
	face.MouthCornerRight = find(mouthCascade, true)
	face.EyebrowLeftInner = find(eyebrowCascade, false)
	face.EyebrowRightInner = find(eyebrowCascade, true)
}

// landmark converts a cascade localization into a point when it lies inside roi.
func landmark(pl *pigo.Puploc, roi image.Rectangle) (mugshot.Field[mugshot.Point], bool) {
	if pl == nil || pl.Row <= 0 || pl.Col <= 0 {
		return mugshot.Field[mugshot.Point]{}, false
	}
	if !image.Pt(pl.Col, pl.Row).In(roi) {
		return mugshot.Field[mugshot.Point]{}, false
	}
	return mugshot.Some(mugshot.Point{X: float64(pl.Col), Y: float64(pl.Row)}), true
}
