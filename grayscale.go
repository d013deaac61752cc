package mugshot

// Luma converts the planar image to an 8 bit grayscale pixel array
// laid out row by row, ready to be scanned by a cascade classifier.
func (p *Planar) Luma() []uint8 {
	gray := make([]uint8, p.Rows*p.Cols)

	for i := range gray {
		lum := p.Pix[0][i]*0.299 + p.Pix[1][i]*0.587 + p.Pix[2][i]*0.114
		gray[i] = uint8(lum*255 + 0.5)
	}
	return gray
}
