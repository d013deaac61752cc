package imop

import (
	"image"

	"github.com/esimov/mugshot/utils"
)

// Op is a Porter-Duff composition operator.
type Op int

// The supported composition operators.
const (
	Clear Op = iota
	Copy
	SrcOver
	DstOver
	SrcAtop
	Xor
)

var opNames = map[Op]string{
	Clear:   "clear",
	Copy:    "copy",
	SrcOver: "src_over",
	DstOver: "dst_over",
	SrcAtop: "src_atop",
	Xor:     "xor",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// Composite holds the currently active composition operator.
type Composite struct {
	current Op
}

// NewComposite initializes a compositor using source-over as default operator.
func NewComposite() *Composite {
	return &Composite{current: SrcOver}
}

// Set activates one of the supported composition operators.
// Unknown operators are ignored.
func (c *Composite) Set(op Op) {
	if _, ok := opNames[op]; ok {
		c.current = op
	}
}

// Get returns the active composition operator.
func (c *Composite) Get() Op {
	return c.current
}

// Draw composites the src layer onto dst in place. The layer's origin is
// placed at pt in dst coordinates and only the overlapping region is touched.
func (c *Composite) Draw(dst, src *image.NRGBA, pt image.Point) {
	sb := src.Bounds()
	area := sb.Sub(sb.Min).Add(pt).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	var rn, gn, bn, an float64

	for y := area.Min.Y; y < area.Max.Y; y++ {
		di := dst.PixOffset(area.Min.X, y)
		si := src.PixOffset(sb.Min.X+area.Min.X-pt.X, sb.Min.Y+y-pt.Y)

		for x := area.Min.X; x < area.Max.X; x++ {
			rsn := float64(src.Pix[si+0]) / 255
			gsn := float64(src.Pix[si+1]) / 255
			bsn := float64(src.Pix[si+2]) / 255
			asn := float64(src.Pix[si+3]) / 255

			rbn := float64(dst.Pix[di+0]) / 255
			gbn := float64(dst.Pix[di+1]) / 255
			bbn := float64(dst.Pix[di+2]) / 255
			abn := float64(dst.Pix[di+3]) / 255

			// applying the alpha composition formula on premultiplied values
			switch c.current {
			case Clear:
				rn, gn, bn, an = 0, 0, 0, 0
			case Copy:
				rn, gn, bn, an = asn*rsn, asn*gsn, asn*bsn, asn
			case SrcOver:
				rn = asn*rsn + abn*rbn*(1-asn)
				gn = asn*gsn + abn*gbn*(1-asn)
				bn = asn*bsn + abn*bbn*(1-asn)
				an = asn + abn*(1-asn)
			case DstOver:
				rn = asn*rsn*(1-abn) + abn*rbn
				gn = asn*gsn*(1-abn) + abn*gbn
				bn = asn*bsn*(1-abn) + abn*bbn
				an = asn*(1-abn) + abn
			case SrcAtop:
				rn = asn*rsn*abn + (1-asn)*abn*rbn
				gn = asn*gsn*abn + (1-asn)*abn*gbn
				bn = asn*bsn*abn + (1-asn)*abn*bbn
				an = abn
			case Xor:
				rn = asn*rsn*(1-abn) + abn*rbn*(1-asn)
				gn = asn*gsn*(1-abn) + abn*gbn*(1-asn)
				bn = asn*bsn*(1-abn) + abn*bbn*(1-asn)
				an = asn*(1-abn) + abn*(1-asn)
			}

			if an > 0 {
				rn, gn, bn = rn/an, gn/an, bn/an
			}

			dst.Pix[di+0] = toByte(rn)
			dst.Pix[di+1] = toByte(gn)
			dst.Pix[di+2] = toByte(bn)
			dst.Pix[di+3] = toByte(an)

			di += 4
			si += 4
		}
	}
}

func toByte(v float64) uint8 {
	return uint8(utils.Clamp(v*255+0.5, 0, 255))
}
